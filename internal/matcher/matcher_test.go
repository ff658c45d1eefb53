package matcher

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/grachmannico95/rex-docs-be/internal/domain"
	"github.com/grachmannico95/rex-docs-be/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docs(names ...string) []domain.DocumentEntry {
	out := make([]domain.DocumentEntry, len(names))
	for i, n := range names {
		out[i] = domain.DocumentEntry{Filename: n, StoragePath: "rex-temp/u1/s1/" + n, SizeBytes: 100}
	}
	return out
}

func newMatcher() *Matcher {
	return New(DefaultRules(), logger.NewNop())
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"BL-2024-001", "bl2024001"},
		{"invoice_BL-2024-001_final.pdf", "invoicebl2024001finalpdf"},
		{"  Inv / 77 ", "inv77"},
		{"---", ""},
		{"Ärger-1", "rger1"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestMatch_TokenQualifiedBLAndUnresolvedInvoice(t *testing.T) {
	records := []domain.ShipmentRecord{
		{RowIndex: 0, BLNumber: "BL-2024-001", InvoiceNumber: "INV-9001"},
	}
	manifest := docs("invoice_BL-2024-001_final.pdf", "BL2024001_scan.pdf")

	results, summary := newMatcher().Match(context.Background(), records, manifest)

	require.Len(t, results, 1)
	require.NotNil(t, results[0].BLDocument)
	assert.Equal(t, "BL2024001_scan.pdf", results[0].BLDocument.Filename)
	assert.Nil(t, results[0].InvoiceDocument)
	assert.False(t, results[0].IsComplete)
	assert.Equal(t, []domain.DocumentKind{domain.DocumentKindInvoice}, results[0].MissingKinds)
	assert.Equal(t, Summary{MatchedCount: 0, MissingCount: 1, TotalRows: 1}, summary)
}

func TestMatch_BothSlotsUnresolved(t *testing.T) {
	records := []domain.ShipmentRecord{
		{RowIndex: 0, BLNumber: "BL-777", InvoiceNumber: "INV-777"},
	}

	results, summary := newMatcher().Match(context.Background(), records, docs("BL-111.pdf", "INV-222.pdf"))

	require.Len(t, results, 1)
	assert.False(t, results[0].IsComplete)
	assert.Equal(t, []domain.DocumentKind{domain.DocumentKindBL, domain.DocumentKindInvoice}, results[0].MissingKinds)
	assert.Equal(t, 1, summary.MissingCount)
}

func TestMatch_CompleteRecord(t *testing.T) {
	records := []domain.ShipmentRecord{
		{RowIndex: 4, BLNumber: "MSKU 123456", InvoiceNumber: "2024/55"},
	}
	manifest := docs("20240105_bl_MSKU123456.pdf", "invoice-2024-55.pdf", "unrelated.pdf")

	results, summary := newMatcher().Match(context.Background(), records, manifest)

	require.Len(t, results, 1)
	res := results[0]
	assert.True(t, res.IsComplete)
	assert.Empty(t, res.MissingKinds)
	assert.Equal(t, "20240105_bl_MSKU123456.pdf", res.BLDocument.Filename)
	assert.Equal(t, "rex-temp/u1/s1/20240105_bl_MSKU123456.pdf", res.BLDocument.StoragePath)
	assert.Equal(t, "invoice-2024-55.pdf", res.InvoiceDocument.Filename)
	assert.Equal(t, 4, res.Record.RowIndex)
	assert.Equal(t, Summary{MatchedCount: 1, MissingCount: 0, TotalRows: 1}, summary)
}

func TestMatch_ExactStemWins(t *testing.T) {
	records := []domain.ShipmentRecord{{BLNumber: "X1", InvoiceNumber: "INV-5"}}
	manifest := docs("bl_X1_copy.pdf", "X1.pdf", "INV5.PDF", "invoice_INV5.pdf")

	results, _ := newMatcher().Match(context.Background(), records, manifest)

	assert.Equal(t, "X1.pdf", results[0].BLDocument.Filename)
	assert.Equal(t, "INV5.PDF", results[0].InvoiceDocument.Filename)
}

func TestMatch_TieBreakShortestThenLexicographic(t *testing.T) {
	records := []domain.ShipmentRecord{{BLNumber: "777", InvoiceNumber: "888"}}
	manifest := docs("bl_777_b.pdf", "bl_777_a.pdf", "bl_777_long.pdf", "inv_888_zz.pdf", "inv_888_2.pdf")

	results, _ := newMatcher().Match(context.Background(), records, manifest)

	assert.Equal(t, "bl_777_a.pdf", results[0].BLDocument.Filename)
	assert.Equal(t, "inv_888_2.pdf", results[0].InvoiceDocument.Filename)
}

func TestMatch_SameFilenameDifferentPaths(t *testing.T) {
	records := []domain.ShipmentRecord{{BLNumber: "BL1", InvoiceNumber: "INV1"}}
	manifest := []domain.DocumentEntry{
		{Filename: "bl1.pdf", StoragePath: "p/1_bl1.pdf"},
		{Filename: "bl1.pdf", StoragePath: "p/bl1.pdf"},
	}

	results, _ := newMatcher().Match(context.Background(), records, manifest)

	assert.Equal(t, "p/1_bl1.pdf", results[0].BLDocument.StoragePath)
}

func TestMatch_EmptyIdentifierIsUnresolved(t *testing.T) {
	records := []domain.ShipmentRecord{{BLNumber: "--", InvoiceNumber: ""}}

	results, _ := newMatcher().Match(context.Background(), records, docs("bl.pdf", "invoice.pdf"))

	assert.Nil(t, results[0].BLDocument)
	assert.Nil(t, results[0].InvoiceDocument)
	assert.Len(t, results[0].MissingKinds, 2)
}

func TestMatch_DocumentSharedAcrossRecords(t *testing.T) {
	records := []domain.ShipmentRecord{
		{RowIndex: 0, BLNumber: "BL-A", InvoiceNumber: "INV-100"},
		{RowIndex: 1, BLNumber: "BL-B", InvoiceNumber: "INV-100"},
	}
	manifest := docs("BL-A.pdf", "BL-B.pdf", "INV-100.pdf")

	results, summary := newMatcher().Match(context.Background(), records, manifest)

	require.Len(t, results, 2)
	assert.Equal(t, "INV-100.pdf", results[0].InvoiceDocument.Filename)
	assert.Equal(t, "INV-100.pdf", results[1].InvoiceDocument.Filename)
	assert.Equal(t, 2, summary.MatchedCount)
}

func TestMatch_Deterministic(t *testing.T) {
	records := []domain.ShipmentRecord{
		{RowIndex: 0, BLNumber: "BL-1", InvoiceNumber: "INV-1"},
		{RowIndex: 1, BLNumber: "BL-2", InvoiceNumber: "INV-2"},
		{RowIndex: 2, BLNumber: "BL-3", InvoiceNumber: "INV-3"},
	}
	manifest := docs("BL-1_a.pdf", "BL-1_b.pdf", "invoice INV-1.pdf", "BL-2.pdf", "INV-2 invoice.pdf", "x.pdf")

	m := newMatcher()
	first, firstSummary := m.Match(context.Background(), records, manifest)
	second, secondSummary := m.Match(context.Background(), records, manifest)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.Equal(t, firstSummary, secondSummary)
	assert.Equal(t, firstSummary.TotalRows, firstSummary.MatchedCount+firstSummary.MissingCount)
}

func TestMatch_IndependentOfManifestOrder(t *testing.T) {
	records := []domain.ShipmentRecord{{BLNumber: "BL-1", InvoiceNumber: "INV-1"}}
	forward := docs("BL-1_b.pdf", "BL-1_a.pdf", "INV-1_y.pdf", "INV-1_x.pdf")
	reversed := docs("INV-1_x.pdf", "INV-1_y.pdf", "BL-1_a.pdf", "BL-1_b.pdf")

	m := newMatcher()
	r1, _ := m.Match(context.Background(), records, forward)
	r2, _ := m.Match(context.Background(), records, reversed)

	assert.Equal(t, r1[0].BLDocument.Filename, r2[0].BLDocument.Filename)
	assert.Equal(t, r1[0].InvoiceDocument.Filename, r2[0].InvoiceDocument.Filename)
}

func TestMatch_ReturnedEntriesAreCopies(t *testing.T) {
	records := []domain.ShipmentRecord{{BLNumber: "BL-1", InvoiceNumber: "INV-1"}}
	manifest := docs("BL-1.pdf", "INV-1.pdf")

	results, _ := newMatcher().Match(context.Background(), records, manifest)
	results[0].BLDocument.Filename = "changed"

	assert.Equal(t, "BL-1.pdf", manifest[0].Filename)
}

func TestLoadRulesFromReader(t *testing.T) {
	content := `
bl_tokens:
  - "Bill of Lading"
  - BL
  - bl
`
	rules, err := LoadRulesFromReader(strings.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, []string{"billoflading", "bl"}, rules.BLTokens)
	assert.Equal(t, []string{"invoice", "inv"}, rules.InvoiceTokens)
}

func TestLoadRulesFromReader_Invalid(t *testing.T) {
	_, err := LoadRulesFromReader(strings.NewReader("bl_tokens: [unterminated"))
	assert.Error(t, err)
}
