package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionBusy         = errors.New("session is being submitted")
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrDocumentNotFound    = errors.New("document not found")
	ErrAccountNotFound     = errors.New("account not found")
	ErrRecordsNotAttached  = errors.New("records not attached to session")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrNoEligibleRows      = errors.New("no eligible rows to submit")
	ErrSyncInProgress      = errors.New("history sync already in progress")
	ErrLockNotAcquired     = errors.New("lock not acquired")
)

// ArchiveError aborts a session before anything is persisted.
type ArchiveError struct {
	Reason string
	Err    error
}

func (e *ArchiveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("archive: %s: %v", e.Reason, e.Err)
	}
	return "archive: " + e.Reason
}

func (e *ArchiveError) Unwrap() error {
	return e.Err
}

type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

// ParseError is scoped to one data row; Row is the 0-based row index.
type ParseError struct {
	Row    int    `json:"row"`
	Column string `json:"column,omitempty"`
	Value  string `json:"value,omitempty"`
	Reason string `json:"reason"`
}

func (e *ParseError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d: %s: %s", e.Row, e.Column, e.Reason)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

type RowErrors []*ParseError

func (e RowErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, pe := range e {
		msgs = append(msgs, pe.Error())
	}
	return fmt.Sprintf("%d row errors: %s", len(e), strings.Join(msgs, "; "))
}

// PersistenceError means the submission batch was rejected as a whole.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

type ReconciliationRowError struct {
	JobID string `json:"job_id"`
	Err   error  `json:"-"`
}

func (e *ReconciliationRowError) Error() string {
	return fmt.Sprintf("reconcile job %s: %v", e.JobID, e.Err)
}

func (e *ReconciliationRowError) Unwrap() error {
	return e.Err
}
