package service

import (
	"context"
	"io"

	"github.com/grachmannico95/rex-docs-be/internal/archive"
	"github.com/grachmannico95/rex-docs-be/internal/domain"
	"github.com/grachmannico95/rex-docs-be/internal/matcher"
	"github.com/grachmannico95/rex-docs-be/internal/records"
	"github.com/grachmannico95/rex-docs-be/internal/submission"
)

// Pipeline stages, satisfied by archive.Extractor, records.Parser,
// matcher.Matcher and submission.Coordinator.

type ArchiveExtractor interface {
	Extract(ctx context.Context, r io.ReaderAt, size int64, prefix string) (*archive.Manifest, error)
}

type RecordParser interface {
	Parse(ctx context.Context, r io.Reader) (*records.Result, error)
}

type DocumentMatcher interface {
	Match(ctx context.Context, rows []domain.ShipmentRecord, documents []domain.DocumentEntry) ([]domain.MatchResult, matcher.Summary)
}

type Submitter interface {
	Submit(ctx context.Context, req submission.Request) (*submission.Outcome, error)
}
