package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/grachmannico95/rex-docs-be/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubmission(id, userID string, createdAt time.Time) domain.Submission {
	return domain.Submission{
		ID:         id,
		UserID:     userID,
		Status:     domain.SubmissionStatusPending,
		CreditCost: decimal.NewFromInt(2),
		Record:     domain.ShipmentRecord{BLNumber: "BL-" + id, InvoiceNumber: "INV-" + id},
		Documents: []domain.SubmissionDocument{
			{ID: id + "-bl", SubmissionID: id, Kind: domain.DocumentKindBL, Filename: "bl.pdf"},
			{ID: id + "-inv", SubmissionID: id, Kind: domain.DocumentKindInvoice, Filename: "inv.pdf"},
		},
		CreatedAt: createdAt,
	}
}

func TestMemoryStore_CreateSubmissions(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.SetAccount(domain.Account{UserID: "u1", Credits: decimal.NewFromInt(10)})

	now := time.Now()
	subs := []domain.Submission{newSubmission("s1", "u1", now), newSubmission("s2", "u1", now)}

	err := store.CreateSubmissions(ctx, "u1", subs, decimal.NewFromInt(4))
	require.NoError(t, err)

	acc, err := store.GetAccount(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(6).Equal(acc.Credits))

	sub, err := store.GetSubmission(ctx, "s1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "BL-s1", sub.Record.BLNumber)
	assert.Len(t, sub.Documents, 2)

	doc, err := store.GetDocument(ctx, "s2-inv")
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentKindInvoice, doc.Kind)
}

func TestMemoryStore_CreateSubmissions_UnknownAccount(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	err := store.CreateSubmissions(ctx, "ghost", []domain.Submission{newSubmission("s1", "ghost", time.Now())}, decimal.NewFromInt(2))
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = store.GetSubmission(ctx, "s1", "ghost")
	assert.ErrorIs(t, err, domain.ErrSubmissionNotFound)
}

func TestMemoryStore_GetSubmission_ScopedToUser(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.SetAccount(domain.Account{UserID: "u1", Credits: decimal.NewFromInt(10)})

	require.NoError(t, store.CreateSubmissions(ctx, "u1", []domain.Submission{newSubmission("s1", "u1", time.Now())}, decimal.Zero))

	_, err := store.GetSubmission(ctx, "s1", "u2")
	assert.ErrorIs(t, err, domain.ErrSubmissionNotFound)
}

func TestMemoryStore_ListSubmissions_Pagination(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.SetAccount(domain.Account{UserID: "u1", Credits: decimal.NewFromInt(100)})
	store.SetAccount(domain.Account{UserID: "u2", Credits: decimal.NewFromInt(100)})

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var subs []domain.Submission
	for i := 0; i < 5; i++ {
		subs = append(subs, newSubmission(fmt.Sprintf("s%d", i), "u1", base.Add(time.Duration(i)*time.Hour)))
	}
	require.NoError(t, store.CreateSubmissions(ctx, "u1", subs, decimal.Zero))
	require.NoError(t, store.CreateSubmissions(ctx, "u2", []domain.Submission{newSubmission("other", "u2", base)}, decimal.Zero))

	page, total, err := store.ListSubmissions(ctx, "u1", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, "s4", page[0].ID)
	assert.Equal(t, "s3", page[1].ID)

	page, _, err = store.ListSubmissions(ctx, "u1", 2, 4)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "s0", page[0].ID)

	page, total, err = store.ListSubmissions(ctx, "u1", 2, 10)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Empty(t, page)
}

func TestMemoryStore_DeleteSubmission(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.SetAccount(domain.Account{UserID: "u1", Credits: decimal.NewFromInt(10)})
	require.NoError(t, store.CreateSubmissions(ctx, "u1", []domain.Submission{newSubmission("s1", "u1", time.Now())}, decimal.Zero))

	_, err := store.DeleteSubmission(ctx, "s1", "u2")
	assert.ErrorIs(t, err, domain.ErrSubmissionNotFound)

	deleted, err := store.DeleteSubmission(ctx, "s1", "u1")
	require.NoError(t, err)
	assert.Len(t, deleted.Documents, 2)

	_, err = store.GetDocument(ctx, "s1-bl")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestMemoryStore_ListCompletedJobs(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	t1 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	store.AddJob(domain.JobRecord{JobID: "a", Status: domain.JobStatusCompleted, CompletedAt: &t1})
	store.AddJob(domain.JobRecord{JobID: "b", Status: domain.JobStatusCompleted, CompletedAt: &t2})
	store.AddJob(domain.JobRecord{JobID: "c", Status: domain.JobStatusCompleted})
	store.AddJob(domain.JobRecord{JobID: "d", Status: domain.JobStatusFailed, CompletedAt: &t2})

	jobs, err := store.ListCompletedJobs(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "b", jobs[0].JobID)
	assert.Equal(t, "a", jobs[1].JobID)

	jobs, err = store.ListCompletedJobs(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "a", jobs[0].JobID)

	jobs, err = store.ListCompletedJobs(ctx, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestMemoryStore_HasHistoryEntry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	entry := &domain.HistoryEntry{UserID: "u1", ServiceID: "svc", FileName: "in.csv", CreatedAt: at}
	require.NoError(t, store.CreateHistoryEntry(ctx, entry))
	assert.Equal(t, int64(1), entry.ID)

	tests := []struct {
		name     string
		fileName string
		from     time.Time
		to       time.Time
		want     bool
	}{
		{"inside", "in.csv", at.Add(-time.Minute), at.Add(time.Minute), true},
		{"on lower bound", "in.csv", at, at.Add(time.Minute), true},
		{"on upper bound", "in.csv", at.Add(-time.Minute), at, true},
		{"before window", "in.csv", at.Add(time.Second), at.Add(time.Minute), false},
		{"other file", "other.csv", at.Add(-time.Minute), at.Add(time.Minute), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.HasHistoryEntry(ctx, "u1", "svc", tt.fileName, tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMemoryStore_Concurrency(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.SetAccount(domain.Account{UserID: "u1", Credits: decimal.NewFromInt(1000)})

	done := make(chan bool)
	for i := 0; i < 100; i++ {
		go func(id int) {
			sub := newSubmission(fmt.Sprintf("s%d", id), "u1", time.Now())
			_ = store.CreateSubmissions(ctx, "u1", []domain.Submission{sub}, decimal.NewFromInt(2))

			_, _, _ = store.ListSubmissions(ctx, "u1", 10, 0)

			_ = store.CreateHistoryEntry(ctx, &domain.HistoryEntry{UserID: "u1", CreatedAt: time.Now()})

			done <- true
		}(i)
	}

	for i := 0; i < 100; i++ {
		<-done
	}

	_, total, err := store.ListSubmissions(ctx, "u1", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 100, total)

	acc, err := store.GetAccount(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(800).Equal(acc.Credits))
	assert.Len(t, store.HistoryEntries(), 100)
}
