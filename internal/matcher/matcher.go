package matcher

import (
	"context"
	"path"
	"strings"

	"github.com/grachmannico95/rex-docs-be/internal/domain"
	"github.com/grachmannico95/rex-docs-be/pkg/logger"
)

// Candidate tiers, best first.
const (
	tierNone = iota
	tierSubstring
	tierTokenQualified
	tierExact
)

type Summary struct {
	MatchedCount int `json:"matched_count"`
	MissingCount int `json:"missing_count"`
	TotalRows    int `json:"total_rows"`
}

type Matcher struct {
	rules  Rules
	logger *logger.Logger
}

func New(rules Rules, log *logger.Logger) *Matcher {
	return &Matcher{
		rules:  rules.normalized(),
		logger: log,
	}
}

// indexedDocument caches the normalized forms of one manifest entry.
type indexedDocument struct {
	entry *domain.DocumentEntry
	name  string
	stem  string
}

// Match resolves a BL and an invoice document for every record. The result
// is index-aligned with records. A document may be chosen for several
// records.
func (m *Matcher) Match(ctx context.Context, records []domain.ShipmentRecord, documents []domain.DocumentEntry) ([]domain.MatchResult, Summary) {
	index := make([]indexedDocument, len(documents))
	for i := range documents {
		index[i] = indexedDocument{
			entry: &documents[i],
			name:  Normalize(documents[i].Filename),
			stem:  Normalize(strings.TrimSuffix(documents[i].Filename, path.Ext(documents[i].Filename))),
		}
	}

	results := make([]domain.MatchResult, len(records))
	summary := Summary{TotalRows: len(records)}

	for i, rec := range records {
		res := domain.MatchResult{
			Record:       rec,
			MissingKinds: []domain.DocumentKind{},
		}

		res.BLDocument = m.best(rec.BLNumber, index, m.rules.BLTokens)
		res.InvoiceDocument = m.best(rec.InvoiceNumber, index, m.rules.InvoiceTokens)

		if res.BLDocument == nil {
			res.MissingKinds = append(res.MissingKinds, domain.DocumentKindBL)
		}
		if res.InvoiceDocument == nil {
			res.MissingKinds = append(res.MissingKinds, domain.DocumentKindInvoice)
		}
		res.IsComplete = len(res.MissingKinds) == 0

		if res.IsComplete {
			summary.MatchedCount++
		} else {
			summary.MissingCount++
			m.logger.Debug(ctx, "Record missing documents",
				"row", rec.RowIndex,
				"bl_number", rec.BLNumber,
				"invoice_number", rec.InvoiceNumber,
				"missing", res.MissingKinds,
			)
		}

		results[i] = res
	}

	m.logger.Info(ctx, "Documents matched",
		"total_rows", summary.TotalRows,
		"matched", summary.MatchedCount,
		"missing", summary.MissingCount,
		"documents", len(documents),
	)

	return results, summary
}

// best returns a copy of the highest ranked candidate for identifier, or nil.
func (m *Matcher) best(identifier string, index []indexedDocument, tokens []string) *domain.DocumentEntry {
	id := Normalize(identifier)
	if id == "" {
		return nil
	}

	var (
		chosen   *indexedDocument
		bestTier = tierNone
	)
	for i := range index {
		doc := &index[i]
		tier := rank(id, doc, tokens)
		if tier == tierNone {
			continue
		}
		if chosen == nil || tier > bestTier || (tier == bestTier && less(doc.entry, chosen.entry)) {
			chosen = doc
			bestTier = tier
		}
	}

	if chosen == nil {
		return nil
	}
	entry := *chosen.entry
	return &entry
}

func rank(id string, doc *indexedDocument, tokens []string) int {
	if !strings.Contains(doc.name, id) {
		return tierNone
	}
	if doc.stem == id {
		return tierExact
	}
	if containsAny(doc.name, tokens) {
		return tierTokenQualified
	}
	return tierSubstring
}

// less orders equally ranked candidates: shorter filename first, then
// lexicographic filename, then storage path.
func less(a, b *domain.DocumentEntry) bool {
	if len(a.Filename) != len(b.Filename) {
		return len(a.Filename) < len(b.Filename)
	}
	if a.Filename != b.Filename {
		return a.Filename < b.Filename
	}
	return a.StoragePath < b.StoragePath
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// Normalize lower-cases s and drops every character outside [a-z0-9].
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
