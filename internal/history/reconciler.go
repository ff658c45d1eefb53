package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grachmannico95/rex-docs-be/internal/domain"
	"github.com/grachmannico95/rex-docs-be/internal/locker"
	"github.com/grachmannico95/rex-docs-be/pkg/logger"
)

const lockKey = "history-sync"

type Config struct {
	// Tolerance widens the job's [createdAt, completedAt] interval on both
	// sides when looking for an existing ledger entry.
	Tolerance       time.Duration
	Retention       time.Duration
	BatchSize       int
	OutputPrefix    string
	OutputExtension string
	LockTTL         time.Duration
}

func DefaultConfig() Config {
	return Config{
		Tolerance:       time.Minute,
		Retention:       7 * 24 * time.Hour,
		BatchSize:       100,
		OutputPrefix:    "pdfs/",
		OutputExtension: ".pdf",
		LockTTL:         30 * time.Minute,
	}
}

type Summary struct {
	Scanned int                              `json:"scanned"`
	Found   int                              `json:"found"`
	Synced  int                              `json:"synced"`
	Skipped int                              `json:"skipped"`
	Failed  int                              `json:"failed"`
	Errors  []*domain.ReconciliationRowError `json:"-"`
}

type Reconciler struct {
	jobs    domain.JobRepository
	history domain.HistoryRepository
	locker  locker.Locker
	cfg     Config
	logger  *logger.Logger
}

func NewReconciler(jobs domain.JobRepository, history domain.HistoryRepository, lk locker.Locker, cfg Config, log *logger.Logger) *Reconciler {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 100
	}
	return &Reconciler{
		jobs:    jobs,
		history: history,
		locker:  lk,
		cfg:     cfg,
		logger:  log,
	}
}

// Run backfills a ledger entry for every completed job that has none. Each
// insert stands alone; a failed row is counted and the run moves on. A
// cancelled ctx stops the run between rows and returns the partial summary
// with ctx.Err().
func (r *Reconciler) Run(ctx context.Context) (*Summary, error) {
	if r.locker != nil {
		release, ok, err := r.locker.TryLock(ctx, lockKey, r.cfg.LockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire sync lock: %w", err)
		}
		if !ok {
			return nil, domain.ErrSyncInProgress
		}
		defer release()
	}

	summary := &Summary{}
	r.logger.Info(ctx, "History sync started")

	// A job completing mid-run shifts later pages; a rescanned row is
	// caught by the existing-entry check.
	for offset := 0; ; offset += r.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return r.finish(ctx, summary, err)
		}

		batch, err := r.jobs.ListCompletedJobs(ctx, offset, r.cfg.BatchSize)
		if err != nil {
			return r.finish(ctx, summary, fmt.Errorf("list completed jobs: %w", err))
		}

		for _, job := range batch {
			if err := ctx.Err(); err != nil {
				return r.finish(ctx, summary, err)
			}
			r.reconcile(ctx, job, summary)
		}

		if len(batch) < r.cfg.BatchSize {
			break
		}
	}

	return r.finish(ctx, summary, nil)
}

func (r *Reconciler) reconcile(ctx context.Context, job domain.JobRecord, summary *Summary) {
	summary.Scanned++
	if job.CompletedAt == nil {
		return
	}

	completedAt := *job.CompletedAt
	from, to := r.window(job)

	exists, err := r.history.HasHistoryEntry(ctx, job.UserID, job.ServiceID, job.InputFileName, from, to)
	if err != nil {
		r.fail(ctx, job, summary, fmt.Errorf("check history: %w", err))
		return
	}
	if exists {
		summary.Skipped++
		return
	}

	summary.Found++

	entry := &domain.HistoryEntry{
		UserID:             job.UserID,
		ServiceID:          job.ServiceID,
		ServiceName:        job.ServiceName,
		FileName:           job.InputFileName,
		CreditsUsed:        job.CreditsUsed,
		Status:             job.Status,
		ResultFiles:        job.ResultFiles,
		DownloadURL:        job.DownloadURL,
		ExpiresAt:          completedAt.Add(r.cfg.Retention),
		GeneratedFileCount: r.countOutputs(job.ResultFiles),
		CreatedAt:          completedAt,
	}

	if err := r.history.CreateHistoryEntry(ctx, entry); err != nil {
		r.fail(ctx, job, summary, fmt.Errorf("insert history: %w", err))
		return
	}

	summary.Synced++
	r.logger.Debug(ctx, "History entry synced",
		"job_id", job.JobID,
		"user_id", job.UserID,
		"file_name", job.InputFileName,
		"generated_files", entry.GeneratedFileCount,
	)
}

// window returns the creation-time range in which an existing entry counts
// as the record of this job.
func (r *Reconciler) window(job domain.JobRecord) (time.Time, time.Time) {
	completedAt := *job.CompletedAt
	start := job.CreatedAt
	if start.IsZero() || start.After(completedAt) {
		start = completedAt
	}
	return start.Add(-r.cfg.Tolerance), completedAt.Add(r.cfg.Tolerance)
}

// countOutputs matches prefix and extension case-sensitively, so X.PDF is
// not a generated output.
func (r *Reconciler) countOutputs(files []string) int {
	count := 0
	for _, f := range files {
		if strings.HasPrefix(f, r.cfg.OutputPrefix) && strings.HasSuffix(f, r.cfg.OutputExtension) {
			count++
		}
	}
	return count
}

func (r *Reconciler) fail(ctx context.Context, job domain.JobRecord, summary *Summary, err error) {
	summary.Failed++
	summary.Errors = append(summary.Errors, &domain.ReconciliationRowError{JobID: job.JobID, Err: err})
	r.logger.Warn(ctx, "Failed to sync history entry",
		"job_id", job.JobID,
		"error", err,
	)
}

func (r *Reconciler) finish(ctx context.Context, summary *Summary, err error) (*Summary, error) {
	r.logger.Info(ctx, "History sync finished",
		"scanned", summary.Scanned,
		"found", summary.Found,
		"synced", summary.Synced,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
	return summary, err
}
