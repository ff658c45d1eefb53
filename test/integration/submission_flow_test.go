package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/grachmannico95/rex-docs-be/internal/archive"
	"github.com/grachmannico95/rex-docs-be/internal/config"
	"github.com/grachmannico95/rex-docs-be/internal/domain"
	"github.com/grachmannico95/rex-docs-be/internal/eventbus"
	"github.com/grachmannico95/rex-docs-be/internal/handler"
	"github.com/grachmannico95/rex-docs-be/internal/history"
	"github.com/grachmannico95/rex-docs-be/internal/locker"
	"github.com/grachmannico95/rex-docs-be/internal/matcher"
	"github.com/grachmannico95/rex-docs-be/internal/objectstore"
	"github.com/grachmannico95/rex-docs-be/internal/records"
	"github.com/grachmannico95/rex-docs-be/internal/server"
	"github.com/grachmannico95/rex-docs-be/internal/service"
	"github.com/grachmannico95/rex-docs-be/internal/session"
	"github.com/grachmannico95/rex-docs-be/internal/storage"
	"github.com/grachmannico95/rex-docs-be/internal/submission"
	"github.com/grachmannico95/rex-docs-be/pkg/logger"
	"github.com/klauspost/compress/zip"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recordsCSV = "RexImporterId;DestinationCountryId;BLNo;BLDate;InvoiceNo;InvoiceDate;InvoiceValue\n" +
	"IMP1;DE;BL-100;1.3.2024;INV-100;2.3.2024;1000.00\n" +
	"IMP1;DE;BL-200;1.3.2024;INV-200;2.3.2024;2000.00\n" +
	"IMP1;DE;BL-300;1.3.2024;INV-300;2.3.2024;abc\n"

func setupTestServer(t *testing.T) (*httptest.Server, *storage.MemoryStore) {
	t.Helper()
	log := logger.NewNop()

	repo := storage.NewMemoryStore()
	repo.SetAccount(domain.Account{UserID: "u1", Credits: decimal.NewFromInt(5)})

	store, err := objectstore.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	reconciler := history.NewReconciler(repo, repo, locker.NewMemoryLocker(), history.DefaultConfig(), log)
	bus := eventbus.New(log, &eventbus.Config{ChannelBuffer: 4, MaxRetries: 1})
	require.NoError(t, bus.Subscribe(eventbus.EventTypeHistorySync, eventbus.NewHistorySyncConsumer(reconciler, log, 1)))
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = bus.Shutdown(ctx)
	})

	sessions := session.NewManager()
	submissionService := service.NewSubmissionService(
		sessions,
		archive.NewExtractor(store, archive.DefaultConfig(), log),
		records.NewParser(log),
		matcher.New(matcher.DefaultRules(), log),
		submission.NewCoordinator(repo, repo, store, submission.DefaultConfig(), log),
		repo,
		store,
		log,
	)

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:      "8080",
			Host:      "0.0.0.0",
			BodyLimit: "10M",
		},
	}

	srv := server.New(
		cfg,
		log,
		handler.NewRexHandler(submissionService, log),
		handler.NewHistoryHandler(service.NewHistoryService(bus, log), log),
		handler.NewHealthHandler(sessions),
	)

	testServer := httptest.NewServer(srv.Handler())
	t.Cleanup(testServer.Close)

	return testServer, repo
}

func buildArchive(t *testing.T, names ...string) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(w, "%PDF-1.4 "+name)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func postMultipart(t *testing.T, url, field, fileName string, content []byte, fields map[string]string) *http.Response {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	part, err := writer.CreateFormFile(field, fileName)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, url, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func do(t *testing.T, method, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func createSession(t *testing.T, baseURL string, names ...string) string {
	t.Helper()
	resp := postMultipart(t, baseURL+"/rex/sessions", "archive", "docs.zip", buildArchive(t, names...), map[string]string{"user_id": "u1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		ID        string                 `json:"id"`
		Documents []domain.DocumentEntry `json:"documents"`
	}
	decode(t, resp, &created)
	require.NotEmpty(t, created.ID)
	return created.ID
}

func TestSubmissionFlow(t *testing.T) {
	srv, repo := setupTestServer(t)

	sessionID := createSession(t, srv.URL, "BL-100.pdf", "INV-100.pdf", "bl BL-200 scan.pdf", "notes.txt")

	resp := postMultipart(t, srv.URL+"/rex/sessions/"+sessionID+"/records", "records", "rows.csv", []byte(recordsCSV), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var attached struct {
		Rows   []domain.ShipmentRecord `json:"rows"`
		Errors []domain.ParseError     `json:"errors"`
	}
	decode(t, resp, &attached)
	assert.Len(t, attached.Rows, 2)
	require.Len(t, attached.Errors, 1)
	assert.Equal(t, 2, attached.Errors[0].Row)

	resp = do(t, http.MethodPost, srv.URL+"/rex/sessions/"+sessionID+"/match")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var matched struct {
		Results      []domain.MatchResult `json:"results"`
		MatchedCount int                  `json:"matched_count"`
		MissingCount int                  `json:"missing_count"`
	}
	decode(t, resp, &matched)
	require.Len(t, matched.Results, 2)
	assert.Equal(t, 1, matched.MatchedCount)
	assert.Equal(t, 1, matched.MissingCount)
	assert.True(t, matched.Results[0].IsComplete)
	assert.Equal(t, "bl BL-200 scan.pdf", matched.Results[1].BLDocument.Filename)
	assert.Nil(t, matched.Results[1].InvoiceDocument)

	resp = do(t, http.MethodPost, srv.URL+"/rex/sessions/"+sessionID+"/submit")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var outcome submission.Outcome
	decode(t, resp, &outcome)
	assert.Equal(t, 1, outcome.CompleteCount)
	assert.Equal(t, 1, outcome.SkippedCount)
	assert.Equal(t, []domain.DocumentKind{domain.DocumentKindInvoice}, outcome.Skipped[0].MissingKinds)
	assert.True(t, decimal.NewFromInt(2).Equal(outcome.TotalCost))

	account, err := repo.GetAccount(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(3).Equal(account.Credits))

	// The session is released after submit.
	resp = do(t, http.MethodPost, srv.URL+"/rex/sessions/"+sessionID+"/match")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/rex/submissions?user_id=u1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Items []domain.Submission `json:"items"`
		Total int                 `json:"total"`
	}
	decode(t, resp, &list)
	assert.Equal(t, 1, list.Total)
	require.Len(t, list.Items, 1)
	require.Len(t, list.Items[0].Documents, 2)

	resp = do(t, http.MethodGet, srv.URL+"/rex/documents/"+list.Items[0].Documents[1].ID+"/download")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 INV-100.pdf", string(body))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "INV-100.pdf")

	resp = do(t, http.MethodGet, srv.URL+"/rex/submissions/"+list.Items[0].ID+"?user_id=someone-else")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodDelete, srv.URL+"/rex/submissions/"+list.Items[0].ID+"?user_id=u1")
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestSubmissionFlow_InsufficientCredits(t *testing.T) {
	srv, repo := setupTestServer(t)
	repo.SetAccount(domain.Account{UserID: "u1", Credits: decimal.NewFromInt(1)})

	sessionID := createSession(t, srv.URL, "BL-100.pdf", "INV-100.pdf")
	resp := postMultipart(t, srv.URL+"/rex/sessions/"+sessionID+"/records", "records", "rows.csv", []byte(recordsCSV), nil)
	resp.Body.Close()

	resp = do(t, http.MethodPost, srv.URL+"/rex/sessions/"+sessionID+"/submit")
	resp.Body.Close()
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
}

func TestSubmissionFlow_NoEligibleRows(t *testing.T) {
	srv, _ := setupTestServer(t)

	sessionID := createSession(t, srv.URL, "unrelated.pdf")
	resp := postMultipart(t, srv.URL+"/rex/sessions/"+sessionID+"/records", "records", "rows.csv", []byte(recordsCSV), nil)
	resp.Body.Close()

	resp = do(t, http.MethodPost, srv.URL+"/rex/sessions/"+sessionID+"/submit")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var outcome submission.Outcome
	decode(t, resp, &outcome)
	assert.Equal(t, 0, outcome.CompleteCount)
	assert.Equal(t, 2, outcome.SkippedCount)
	assert.Empty(t, outcome.Submitted)
}

func TestSubmissionFlow_BadInputs(t *testing.T) {
	srv, _ := setupTestServer(t)

	resp := postMultipart(t, srv.URL+"/rex/sessions", "archive", "docs.zip", []byte("not a zip"), map[string]string{"user_id": "u1"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postMultipart(t, srv.URL+"/rex/sessions", "archive", "docs.zip", buildArchive(t, "a.pdf"), nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	sessionID := createSession(t, srv.URL, "a.pdf")
	resp = postMultipart(t, srv.URL+"/rex/sessions/"+sessionID+"/records", "records", "rows.csv", []byte("BLNo,InvoiceNo\nBL,INV\n"), nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body map[string]interface{}
	decode(t, resp, &body)
	assert.Contains(t, body["missing_columns"], records.ColumnImporterID)

	resp = do(t, http.MethodPost, srv.URL+"/rex/sessions/"+sessionID+"/match")
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = do(t, http.MethodDelete, srv.URL+"/rex/sessions/"+sessionID)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/rex/submissions")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHistorySyncEndpoint(t *testing.T) {
	srv, repo := setupTestServer(t)

	completed := time.Now().UTC().Add(-time.Hour)
	repo.AddJob(domain.JobRecord{
		JobID:         "job-1",
		UserID:        "u1",
		ServiceID:     "rex",
		InputFileName: "rows.csv",
		ResultFiles:   []string{"pdfs/a.pdf", "pdfs/b.pdf", "pdfs/c.PDF", "logs/run.txt"},
		Status:        domain.JobStatusCompleted,
		CreatedAt:     completed.Add(-time.Minute),
		CompletedAt:   &completed,
	})

	resp := do(t, http.MethodPost, srv.URL+"/history/sync")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var queued map[string]string
	decode(t, resp, &queued)
	assert.Equal(t, "queued", queued["status"])

	require.Eventually(t, func() bool {
		return len(repo.HistoryEntries()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	entry := repo.HistoryEntries()[0]
	assert.Equal(t, 2, entry.GeneratedFileCount)
	assert.Equal(t, completed, entry.CreatedAt)
}

func TestHealth(t *testing.T) {
	srv, _ := setupTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/health")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
