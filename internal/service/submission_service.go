package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/grachmannico95/rex-docs-be/internal/domain"
	"github.com/grachmannico95/rex-docs-be/internal/matcher"
	"github.com/grachmannico95/rex-docs-be/internal/objectstore"
	"github.com/grachmannico95/rex-docs-be/internal/records"
	"github.com/grachmannico95/rex-docs-be/internal/session"
	"github.com/grachmannico95/rex-docs-be/internal/submission"
	"github.com/grachmannico95/rex-docs-be/pkg/logger"
)

type SubmissionService interface {
	CreateSession(ctx context.Context, userID, archiveName string, r io.ReaderAt, size int64) (*SessionResult, error)
	AttachRecords(ctx context.Context, sessionID, fileName string, r io.Reader) (*records.Result, error)
	Match(ctx context.Context, sessionID string) (*MatchResponse, error)
	Submit(ctx context.Context, sessionID string) (*submission.Outcome, error)
	DiscardSession(ctx context.Context, sessionID string) error
	ListSubmissions(ctx context.Context, userID string, limit, offset int) ([]domain.Submission, int, error)
	GetSubmission(ctx context.Context, submissionID, userID string) (*domain.Submission, error)
	DeleteSubmission(ctx context.Context, submissionID, userID string) error
	OpenDocument(ctx context.Context, documentID string) (*domain.SubmissionDocument, io.ReadCloser, error)
	CleanupExpiredSessions(ctx context.Context, maxAge time.Duration) int
}

type SessionResult struct {
	*session.Session
	SkippedEntries int `json:"skipped_entries"`
}

type MatchResponse struct {
	Results []domain.MatchResult `json:"results"`
	matcher.Summary
}

type submissionService struct {
	sessions    *session.Manager
	extractor   ArchiveExtractor
	parser      RecordParser
	matcher     DocumentMatcher
	submitter   Submitter
	submissions domain.SubmissionRepository
	store       objectstore.Store
	logger      *logger.Logger
}

func NewSubmissionService(
	sessions *session.Manager,
	extractor ArchiveExtractor,
	parser RecordParser,
	docMatcher DocumentMatcher,
	submitter Submitter,
	submissions domain.SubmissionRepository,
	store objectstore.Store,
	log *logger.Logger,
) SubmissionService {
	return &submissionService{
		sessions:    sessions,
		extractor:   extractor,
		parser:      parser,
		matcher:     docMatcher,
		submitter:   submitter,
		submissions: submissions,
		store:       store,
		logger:      log,
	}
}

func (s *submissionService) CreateSession(ctx context.Context, userID, archiveName string, r io.ReaderAt, size int64) (*SessionResult, error) {
	sessionID, prefix := s.sessions.Reserve(userID)
	ctx = logger.WithSessionID(logger.WithUserID(ctx, userID), sessionID)

	s.logger.Info(ctx, "Extracting archive",
		"archive", archiveName,
		"size", size,
	)

	manifest, err := s.extractor.Extract(ctx, r, size, prefix)
	if err != nil {
		s.logger.Warn(ctx, "Archive rejected",
			"archive", archiveName,
			"error", err,
		)
		return nil, err
	}

	sess := s.sessions.Register(sessionID, userID, prefix, archiveName, manifest.Documents)

	s.logger.Info(ctx, "Session created",
		"documents", len(manifest.Documents),
		"skipped", manifest.Skipped,
	)

	return &SessionResult{Session: sess, SkippedEntries: manifest.Skipped}, nil
}

func (s *submissionService) AttachRecords(ctx context.Context, sessionID, fileName string, r io.Reader) (*records.Result, error) {
	ctx = logger.WithSessionID(ctx, sessionID)

	if _, err := s.sessions.Get(sessionID); err != nil {
		return nil, err
	}

	result, err := s.parser.Parse(ctx, r)
	if err != nil {
		s.logger.Warn(ctx, "Records file rejected",
			"file", fileName,
			"error", err,
		)
		return nil, err
	}

	if _, err := s.sessions.AttachRecords(sessionID, fileName, result.Records, result.Errors); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "Records attached",
		"file", fileName,
		"rows", len(result.Records),
		"row_errors", len(result.Errors),
	)

	return result, nil
}

func (s *submissionService) Match(ctx context.Context, sessionID string) (*MatchResponse, error) {
	ctx = logger.WithSessionID(ctx, sessionID)

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	return s.match(logger.WithUserID(ctx, sess.UserID), sess)
}

func (s *submissionService) match(ctx context.Context, sess *session.Session) (*MatchResponse, error) {
	if !sess.RecordsAttached {
		return nil, domain.ErrRecordsNotAttached
	}

	results, summary := s.matcher.Match(ctx, sess.Records, sess.Documents)
	return &MatchResponse{Results: results, Summary: summary}, nil
}

// Submit claims the session, re-runs matching and hands the results to the
// coordinator. A second submit of the same session fails with ErrSessionBusy
// while the first is in flight. The session and its stored files are released
// once the batch is committed.
func (s *submissionService) Submit(ctx context.Context, sessionID string) (*submission.Outcome, error) {
	ctx = logger.WithSessionID(ctx, sessionID)

	sess, err := s.sessions.Claim(sessionID)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithUserID(ctx, sess.UserID)

	outcome, err := s.submit(ctx, sess)
	if err != nil {
		s.sessions.Unclaim(sessionID)
		return outcome, err
	}

	if _, err := s.sessions.Finish(sessionID); err != nil {
		s.logger.Warn(ctx, "Failed to release session after submit", "error", err)
		return outcome, nil
	}
	if err := s.store.DeletePrefix(ctx, sess.StoragePrefix); err != nil {
		s.logger.Warn(ctx, "Failed to delete session files after submit", "error", err)
	}

	return outcome, nil
}

func (s *submissionService) submit(ctx context.Context, sess *session.Session) (*submission.Outcome, error) {
	matched, err := s.match(ctx, sess)
	if err != nil {
		return nil, err
	}

	return s.submitter.Submit(ctx, submission.Request{
		UserID:          sess.UserID,
		RecordsFileName: sess.RecordsFileName,
		ArchiveFileName: sess.ArchiveFileName,
		Results:         matched.Results,
	})
}

func (s *submissionService) DiscardSession(ctx context.Context, sessionID string) error {
	ctx = logger.WithSessionID(ctx, sessionID)

	sess, err := s.sessions.Delete(sessionID)
	if err != nil {
		return err
	}
	if err := s.store.DeletePrefix(ctx, sess.StoragePrefix); err != nil {
		return fmt.Errorf("delete session files: %w", err)
	}
	s.logger.Info(ctx, "Session discarded")
	return nil
}

func (s *submissionService) ListSubmissions(ctx context.Context, userID string, limit, offset int) ([]domain.Submission, int, error) {
	ctx = logger.WithUserID(ctx, userID)

	s.logger.Debug(ctx, "Listing submissions",
		"limit", limit,
		"offset", offset,
	)

	subs, total, err := s.submissions.ListSubmissions(ctx, userID, limit, offset)
	if err != nil {
		s.logger.Error(ctx, "Failed to list submissions", "error", err)
		return nil, 0, err
	}
	return subs, total, nil
}

func (s *submissionService) GetSubmission(ctx context.Context, submissionID, userID string) (*domain.Submission, error) {
	return s.submissions.GetSubmission(logger.WithUserID(ctx, userID), submissionID, userID)
}

// DeleteSubmission removes the row first; leftover objects are logged and
// left for manual cleanup.
func (s *submissionService) DeleteSubmission(ctx context.Context, submissionID, userID string) error {
	ctx = logger.WithUserID(ctx, userID)

	sub, err := s.submissions.DeleteSubmission(ctx, submissionID, userID)
	if err != nil {
		return err
	}

	for _, doc := range sub.Documents {
		if err := s.store.Delete(ctx, doc.StoragePath); err != nil && !errors.Is(err, objectstore.ErrObjectNotFound) {
			s.logger.Warn(ctx, "Failed to delete submission document",
				"submission_id", submissionID,
				"document_id", doc.ID,
				"error", err,
			)
		}
	}

	s.logger.Info(ctx, "Submission deleted",
		"submission_id", submissionID,
		"documents", len(sub.Documents),
	)
	return nil
}

func (s *submissionService) OpenDocument(ctx context.Context, documentID string) (*domain.SubmissionDocument, io.ReadCloser, error) {
	doc, err := s.submissions.GetDocument(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.store.Get(ctx, doc.StoragePath)
	if err != nil {
		if errors.Is(err, objectstore.ErrObjectNotFound) {
			return nil, nil, domain.ErrDocumentNotFound
		}
		return nil, nil, err
	}
	return doc, rc, nil
}

// CleanupExpiredSessions drops idle sessions and their stored files and
// returns how many were removed.
func (s *submissionService) CleanupExpiredSessions(ctx context.Context, maxAge time.Duration) int {
	expired := s.sessions.Expire(maxAge)
	for _, sess := range expired {
		if err := s.store.DeletePrefix(ctx, sess.StoragePrefix); err != nil {
			s.logger.Warn(logger.WithSessionID(ctx, sess.ID), "Failed to delete expired session files", "error", err)
		}
	}
	if len(expired) > 0 {
		s.logger.Info(ctx, "Expired sessions removed", "count", len(expired))
	}
	return len(expired)
}
