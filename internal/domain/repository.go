package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type SubmissionRepository interface {
	// CreateSubmissions persists every submission with its documents and
	// charges the user in one atomic commit.
	CreateSubmissions(ctx context.Context, userID string, submissions []Submission, charge decimal.Decimal) error
	ListSubmissions(ctx context.Context, userID string, limit, offset int) ([]Submission, int, error)
	GetSubmission(ctx context.Context, submissionID, userID string) (*Submission, error)
	DeleteSubmission(ctx context.Context, submissionID, userID string) (*Submission, error)
	GetDocument(ctx context.Context, documentID string) (*SubmissionDocument, error)
}

type AccountRepository interface {
	GetAccount(ctx context.Context, userID string) (*Account, error)
}

type JobRepository interface {
	// ListCompletedJobs returns completed jobs with a completion timestamp,
	// newest completion first.
	ListCompletedJobs(ctx context.Context, offset, limit int) ([]JobRecord, error)
}

type HistoryRepository interface {
	// HasHistoryEntry reports whether an entry for the user/service/file was
	// created within [from, to].
	HasHistoryEntry(ctx context.Context, userID, serviceID, fileName string, from, to time.Time) (bool, error)
	CreateHistoryEntry(ctx context.Context, entry *HistoryEntry) error
}
