package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/grachmannico95/rex-docs-be/internal/domain"
	"github.com/shopspring/decimal"
)

// MemoryStore implements every repository in domain on top of maps. It is
// used by tests and by the server when no database is configured.
type MemoryStore struct {
	submissions map[string]*domain.Submission
	documents   map[string]*domain.SubmissionDocument
	accounts    map[string]*domain.Account
	jobs        map[string]domain.JobRecord
	history     []domain.HistoryEntry
	nextHistory int64
	mu          sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		submissions: make(map[string]*domain.Submission),
		documents:   make(map[string]*domain.SubmissionDocument),
		accounts:    make(map[string]*domain.Account),
		jobs:        make(map[string]domain.JobRecord),
	}
}

func (s *MemoryStore) SetAccount(account domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := account
	s.accounts[account.UserID] = &acc
}

func (s *MemoryStore) AddJob(job domain.JobRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[job.JobID] = job
}

func (s *MemoryStore) GetAccount(ctx context.Context, userID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, exists := s.accounts[userID]
	if !exists {
		return nil, domain.ErrAccountNotFound
	}

	copied := *acc
	return &copied, nil
}

func (s *MemoryStore) CreateSubmissions(ctx context.Context, userID string, submissions []domain.Submission, charge decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, exists := s.accounts[userID]
	if !exists {
		return domain.ErrAccountNotFound
	}

	for i := range submissions {
		sub := cloneSubmission(submissions[i])
		s.submissions[sub.ID] = &sub
		for j := range sub.Documents {
			doc := sub.Documents[j]
			s.documents[doc.ID] = &doc
		}
	}
	acc.Credits = acc.Credits.Sub(charge)

	return nil
}

func (s *MemoryStore) ListSubmissions(ctx context.Context, userID string, limit, offset int) ([]domain.Submission, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var owned []domain.Submission
	for _, sub := range s.submissions {
		if sub.UserID == userID {
			owned = append(owned, cloneSubmission(*sub))
		}
	}

	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].CreatedAt.After(owned[j].CreatedAt)
		}
		return owned[i].ID > owned[j].ID
	})

	total := len(owned)

	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	start := offset
	end := start + limit

	if start >= total {
		return []domain.Submission{}, total, nil
	}
	if end > total {
		end = total
	}

	return owned[start:end], total, nil
}

func (s *MemoryStore) GetSubmission(ctx context.Context, submissionID, userID string) (*domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, exists := s.submissions[submissionID]
	if !exists || sub.UserID != userID {
		return nil, domain.ErrSubmissionNotFound
	}

	copied := cloneSubmission(*sub)
	return &copied, nil
}

func (s *MemoryStore) DeleteSubmission(ctx context.Context, submissionID, userID string) (*domain.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, exists := s.submissions[submissionID]
	if !exists || sub.UserID != userID {
		return nil, domain.ErrSubmissionNotFound
	}

	for _, doc := range sub.Documents {
		delete(s.documents, doc.ID)
	}
	delete(s.submissions, submissionID)

	return sub, nil
}

func (s *MemoryStore) GetDocument(ctx context.Context, documentID string) (*domain.SubmissionDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, exists := s.documents[documentID]
	if !exists {
		return nil, domain.ErrDocumentNotFound
	}

	copied := *doc
	return &copied, nil
}

func (s *MemoryStore) ListCompletedJobs(ctx context.Context, offset, limit int) ([]domain.JobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var completed []domain.JobRecord
	for _, job := range s.jobs {
		if job.Status == domain.JobStatusCompleted && job.CompletedAt != nil {
			completed = append(completed, job)
		}
	}

	sort.Slice(completed, func(i, j int) bool {
		a, b := completed[i].CompletedAt, completed[j].CompletedAt
		if !a.Equal(*b) {
			return a.After(*b)
		}
		return completed[i].JobID > completed[j].JobID
	})

	if offset >= len(completed) {
		return []domain.JobRecord{}, nil
	}
	end := offset + limit
	if limit < 1 || end > len(completed) {
		end = len(completed)
	}

	return completed[offset:end], nil
}

func (s *MemoryStore) HasHistoryEntry(ctx context.Context, userID, serviceID, fileName string, from, to time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.history {
		if e.UserID != userID || e.ServiceID != serviceID || e.FileName != fileName {
			continue
		}
		if !e.CreatedAt.Before(from) && !e.CreatedAt.After(to) {
			return true, nil
		}
	}

	return false, nil
}

func (s *MemoryStore) CreateHistoryEntry(ctx context.Context, entry *domain.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextHistory++
	entry.ID = s.nextHistory

	stored := *entry
	stored.ResultFiles = append([]string(nil), entry.ResultFiles...)
	s.history = append(s.history, stored)

	return nil
}

// HistoryEntries returns a snapshot of the ledger in insertion order.
func (s *MemoryStore) HistoryEntries() []domain.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.HistoryEntry(nil), s.history...)
}

func cloneSubmission(sub domain.Submission) domain.Submission {
	sub.Documents = append([]domain.SubmissionDocument(nil), sub.Documents...)
	if sub.Record.Extra != nil {
		extra := make(map[string]string, len(sub.Record.Extra))
		for k, v := range sub.Record.Extra {
			extra[k] = v
		}
		sub.Record.Extra = extra
	}
	return sub
}
