package submission

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/grachmannico95/rex-docs-be/internal/domain"
	"github.com/grachmannico95/rex-docs-be/internal/objectstore"
	"github.com/grachmannico95/rex-docs-be/pkg/logger"
	"github.com/grachmannico95/rex-docs-be/pkg/retry"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const permanentPrefix = "rex-submissions"

type Config struct {
	// Rate is charged once per accepted row.
	Rate            decimal.Decimal
	CopyConcurrency int
	CopyAttempts    int
}

func DefaultConfig() Config {
	return Config{
		Rate:            decimal.NewFromInt(2),
		CopyConcurrency: 4,
		CopyAttempts:    3,
	}
}

type Request struct {
	UserID          string
	RecordsFileName string
	ArchiveFileName string
	Results         []domain.MatchResult
}

type SkippedRow struct {
	RowIndex      int                   `json:"row_index"`
	BLNumber      string                `json:"bl_number"`
	InvoiceNumber string                `json:"invoice_number"`
	MissingKinds  []domain.DocumentKind `json:"missing_kinds"`
}

type Outcome struct {
	Submitted     []domain.Submission `json:"submitted"`
	Skipped       []SkippedRow        `json:"skipped"`
	CompleteCount int                 `json:"complete_count"`
	SkippedCount  int                 `json:"skipped_count"`
	TotalCost     decimal.Decimal     `json:"total_cost"`
}

type Coordinator struct {
	submissions domain.SubmissionRepository
	accounts    domain.AccountRepository
	store       objectstore.Store
	cfg         Config
	logger      *logger.Logger
	now         func() time.Time
}

func NewCoordinator(
	submissions domain.SubmissionRepository,
	accounts domain.AccountRepository,
	store objectstore.Store,
	cfg Config,
	log *logger.Logger,
) *Coordinator {
	if cfg.CopyConcurrency < 1 {
		cfg.CopyConcurrency = 1
	}
	if cfg.CopyAttempts < 1 {
		cfg.CopyAttempts = 1
	}
	return &Coordinator{
		submissions: submissions,
		accounts:    accounts,
		store:       store,
		cfg:         cfg,
		logger:      log,
		now:         time.Now,
	}
}

// Submit persists one pending Submission per complete match result and
// charges CompleteCount × Rate in the same commit. Incomplete rows are only
// reported. When nothing is complete the outcome is returned together with
// ErrNoEligibleRows.
func (c *Coordinator) Submit(ctx context.Context, req Request) (*Outcome, error) {
	ctx = logger.WithUserID(ctx, req.UserID)

	outcome := &Outcome{
		Submitted: []domain.Submission{},
		Skipped:   []SkippedRow{},
		TotalCost: decimal.Zero,
	}

	var complete []domain.MatchResult
	for _, res := range req.Results {
		if res.IsComplete && res.BLDocument != nil && res.InvoiceDocument != nil {
			complete = append(complete, res)
			continue
		}
		outcome.Skipped = append(outcome.Skipped, SkippedRow{
			RowIndex:      res.Record.RowIndex,
			BLNumber:      res.Record.BLNumber,
			InvoiceNumber: res.Record.InvoiceNumber,
			MissingKinds:  missingKinds(res),
		})
	}
	outcome.SkippedCount = len(outcome.Skipped)

	if len(complete) == 0 {
		c.logger.Info(ctx, "No eligible rows to submit", "skipped", outcome.SkippedCount)
		return outcome, domain.ErrNoEligibleRows
	}

	total := c.cfg.Rate.Mul(decimal.NewFromInt(int64(len(complete))))

	account, err := c.accounts.GetAccount(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if !account.IsAdmin && account.Credits.LessThan(total) {
		c.logger.Warn(ctx, "Insufficient credits",
			"required", total.String(),
			"available", account.Credits.String(),
		)
		return nil, domain.ErrInsufficientCredits
	}

	createdAt := c.now().UTC()
	subs := make([]domain.Submission, len(complete))
	for i, res := range complete {
		subs[i] = c.newSubmission(req, res, createdAt)
	}

	copied, err := c.copyDocuments(ctx, subs, complete)
	if err != nil {
		c.removeCopies(ctx, copied)
		c.logger.Error(ctx, "Failed to copy documents", "error", err)
		return nil, &domain.PersistenceError{Op: "copy documents", Err: err}
	}

	if err := c.submissions.CreateSubmissions(ctx, req.UserID, subs, total); err != nil {
		c.removeCopies(ctx, copied)
		c.logger.Error(ctx, "Failed to commit submissions",
			"submissions", len(subs),
			"error", err,
		)
		var perr *domain.PersistenceError
		if errors.As(err, &perr) {
			return nil, perr
		}
		return nil, &domain.PersistenceError{Op: "create submissions", Err: err}
	}

	outcome.Submitted = subs
	outcome.CompleteCount = len(subs)
	outcome.TotalCost = total

	c.logger.Info(ctx, "Submissions created",
		"submitted", outcome.CompleteCount,
		"skipped", outcome.SkippedCount,
		"total_cost", total.String(),
	)

	return outcome, nil
}

func (c *Coordinator) newSubmission(req Request, res domain.MatchResult, createdAt time.Time) domain.Submission {
	id := uuid.New().String()
	sub := domain.Submission{
		ID:              id,
		UserID:          req.UserID,
		Record:          res.Record,
		Status:          domain.SubmissionStatusPending,
		CreditCost:      c.cfg.Rate,
		RecordsFileName: req.RecordsFileName,
		ArchiveFileName: req.ArchiveFileName,
		CreatedAt:       createdAt,
	}
	sub.Documents = []domain.SubmissionDocument{
		newDocument(req.UserID, id, domain.DocumentKindBL, res.BLDocument),
		newDocument(req.UserID, id, domain.DocumentKindInvoice, res.InvoiceDocument),
	}
	return sub
}

func newDocument(userID, submissionID string, kind domain.DocumentKind, entry *domain.DocumentEntry) domain.SubmissionDocument {
	name := strings.ToLower(string(kind)) + "_" + path.Base(entry.Filename)
	return domain.SubmissionDocument{
		ID:           uuid.New().String(),
		SubmissionID: submissionID,
		Kind:         kind,
		Filename:     entry.Filename,
		StoragePath:  objectstore.JoinKey(permanentPrefix, userID, submissionID, name),
		SizeBytes:    entry.SizeBytes,
	}
}

// copyDocuments copies every temporary document to its permanent key and
// returns the keys written, including on failure.
func (c *Coordinator) copyDocuments(ctx context.Context, subs []domain.Submission, results []domain.MatchResult) ([]string, error) {
	var (
		mu     sync.Mutex
		copied []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.CopyConcurrency)

	for i := range subs {
		sources := []string{results[i].BLDocument.StoragePath, results[i].InvoiceDocument.StoragePath}
		for j, doc := range subs[i].Documents {
			src, dst := sources[j], doc.StoragePath
			g.Go(func() error {
				err := retry.Do(gctx, func() error {
					err := c.store.Copy(gctx, src, dst)
					if errors.Is(err, objectstore.ErrObjectNotFound) {
						return retry.Permanent(err)
					}
					return err
				}, retry.WithMaxAttempts(c.cfg.CopyAttempts), retry.WithBaseDelay(100*time.Millisecond))
				if err != nil {
					return fmt.Errorf("copy %s: %w", src, err)
				}
				mu.Lock()
				copied = append(copied, dst)
				mu.Unlock()
				return nil
			})
		}
	}

	err := g.Wait()
	return copied, err
}

func (c *Coordinator) removeCopies(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := c.store.Delete(ctx, key); err != nil {
			c.logger.Warn(ctx, "Failed to remove copied document",
				"key", key,
				"error", err,
			)
		}
	}
}

func missingKinds(res domain.MatchResult) []domain.DocumentKind {
	if len(res.MissingKinds) > 0 {
		return res.MissingKinds
	}
	var kinds []domain.DocumentKind
	if res.BLDocument == nil {
		kinds = append(kinds, domain.DocumentKindBL)
	}
	if res.InvoiceDocument == nil {
		kinds = append(kinds, domain.DocumentKindInvoice)
	}
	return kinds
}
