package records

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/grachmannico95/rex-docs-be/internal/domain"
	"github.com/grachmannico95/rex-docs-be/pkg/logger"
	"github.com/shopspring/decimal"
)

const (
	ColumnImporterID           = "RexImporterId"
	ColumnDestinationCountryID = "DestinationCountryId"
	ColumnBLNumber             = "BLNo"
	ColumnBLDate               = "BLDate"
	ColumnInvoiceNumber        = "InvoiceNo"
	ColumnInvoiceDate          = "InvoiceDate"
	ColumnInvoiceValue         = "InvoiceValue"
)

var RequiredColumns = []string{
	ColumnImporterID,
	ColumnDestinationCountryID,
	ColumnBLNumber,
	ColumnBLDate,
	ColumnInvoiceNumber,
	ColumnInvoiceDate,
	ColumnInvoiceValue,
}

// requiredCells must be non-empty on every row.
var requiredCells = []string{ColumnImporterID, ColumnBLNumber, ColumnInvoiceNumber}

// extraDateColumns are normalized like BLDate and InvoiceDate but kept in Extra.
var extraDateColumns = map[string]bool{
	"expdate":          true,
	"billofexportdate": true,
	"declarationdate":  true,
}

type Result struct {
	Records   []domain.ShipmentRecord `json:"rows"`
	Errors    domain.RowErrors        `json:"errors"`
	TotalRows int                     `json:"total_rows"`
}

type Parser struct {
	logger *logger.Logger
}

func NewParser(log *logger.Logger) *Parser {
	return &Parser{logger: log}
}

// Parse reads delimited text with a header row. A missing required column
// fails the whole file with a SchemaError; a bad cell only fails its row.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (*Result, error) {
	br := bufio.NewReader(r)
	comma, err := sniffDelimiter(br)
	if err != nil {
		return nil, err
	}

	csvReader := csv.NewReader(br)
	csvReader.Comma = comma
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	header, err := csvReader.Read()
	if err == io.EOF {
		return nil, &domain.SchemaError{Missing: RequiredColumns}
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	columns := indexHeader(header)
	if missing := missingColumns(columns); len(missing) > 0 {
		return nil, &domain.SchemaError{Missing: missing}
	}

	result := &Result{
		Records: []domain.ShipmentRecord{},
		Errors:  domain.RowErrors{},
	}

	rowIndex := -1
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		rowIndex++

		if err != nil {
			var csvErr *csv.ParseError
			if !errors.As(err, &csvErr) {
				return nil, fmt.Errorf("reading row %d: %w", rowIndex, err)
			}
			result.Errors = append(result.Errors, &domain.ParseError{Row: rowIndex, Reason: csvErr.Err.Error()})
			continue
		}

		rec, rowErrs := p.parseRow(header, columns, record, rowIndex)
		if len(rowErrs) > 0 {
			p.logger.Warn(ctx, "Row rejected",
				"row", rowIndex,
				"errors", len(rowErrs),
			)
			result.Errors = append(result.Errors, rowErrs...)
			continue
		}

		result.Records = append(result.Records, rec)
	}

	result.TotalRows = rowIndex + 1

	p.logger.Info(ctx, "Records parsed",
		"total_rows", result.TotalRows,
		"valid_rows", len(result.Records),
		"error_count", len(result.Errors),
	)

	return result, nil
}

func (p *Parser) parseRow(header []string, columns map[string]int, record []string, rowIndex int) (domain.ShipmentRecord, []*domain.ParseError) {
	cell := func(name string) string {
		idx, ok := columns[strings.ToLower(name)]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var errs []*domain.ParseError
	for _, name := range requiredCells {
		if cell(name) == "" {
			errs = append(errs, &domain.ParseError{Row: rowIndex, Column: name, Reason: "missing required value"})
		}
	}

	rawValue := cell(ColumnInvoiceValue)
	value, err := parseDecimal(rawValue)
	if err != nil {
		errs = append(errs, &domain.ParseError{
			Row:    rowIndex,
			Column: ColumnInvoiceValue,
			Value:  rawValue,
			Reason: err.Error(),
		})
	}

	if len(errs) > 0 {
		return domain.ShipmentRecord{}, errs
	}

	rec := domain.ShipmentRecord{
		RowIndex:             rowIndex,
		ImporterID:           cell(ColumnImporterID),
		DestinationCountryID: cell(ColumnDestinationCountryID),
		BLNumber:             cell(ColumnBLNumber),
		InvoiceNumber:        cell(ColumnInvoiceNumber),
		BLDate:               NormalizeDate(cell(ColumnBLDate)),
		InvoiceDate:          NormalizeDate(cell(ColumnInvoiceDate)),
		InvoiceValue:         value,
	}

	for idx, name := range header {
		name = cleanHeader(name)
		if name == "" || isTypedColumn(name) {
			continue
		}
		v := ""
		if idx < len(record) {
			v = record[idx]
		}
		if extraDateColumns[strings.ToLower(name)] {
			v = NormalizeDate(strings.TrimSpace(v))
		}
		if rec.Extra == nil {
			rec.Extra = make(map[string]string)
		}
		rec.Extra[name] = v
	}

	return rec, nil
}

// parseDecimal accepts plain decimals with an optional thousands separator.
// An empty cell is an error: values are never coerced to zero.
func parseDecimal(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, errors.New("missing required value")
	}
	cleaned := raw
	if thousandsPattern.MatchString(raw) {
		cleaned = strings.ReplaceAll(raw, ",", "")
	}
	if !decimalPattern.MatchString(cleaned) {
		return decimal.Zero, fmt.Errorf("invalid decimal %q", raw)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal %q", raw)
	}
	return d, nil
}

var (
	decimalPattern   = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)$`)
	thousandsPattern = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)
)

var datePatterns = []struct {
	re        *regexp.Regexp
	yearFirst bool
}{
	{regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})$`), false},
	{regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`), false},
	{regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`), true},
}

// NormalizeDate rewrites d.m.yyyy, d/m/yyyy and yyyy-m-d to yyyy-mm-dd.
// Anything else is returned unchanged.
func NormalizeDate(s string) string {
	for _, p := range datePatterns {
		m := p.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		if p.yearFirst {
			return fmt.Sprintf("%s-%s-%s", m[1], pad2(m[2]), pad2(m[3]))
		}
		return fmt.Sprintf("%s-%s-%s", m[3], pad2(m[2]), pad2(m[1]))
	}
	return s
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

func sniffDelimiter(br *bufio.Reader) (rune, error) {
	line, err := br.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return 0, fmt.Errorf("reading header: %w", err)
	}
	first := string(line)
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}

	best, bestCount := ',', strings.Count(first, ",")
	for _, c := range []rune{';', '\t', '|'} {
		if n := strings.Count(first, string(c)); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best, nil
}

func cleanHeader(name string) string {
	return strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
}

func indexHeader(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(cleanHeader(name))
		if _, dup := columns[key]; !dup {
			columns[key] = i
		}
	}
	return columns
}

func missingColumns(columns map[string]int) []string {
	var missing []string
	for _, name := range RequiredColumns {
		if _, ok := columns[strings.ToLower(name)]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func isTypedColumn(name string) bool {
	for _, c := range RequiredColumns {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}
