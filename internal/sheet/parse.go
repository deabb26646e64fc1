package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/radiusdt/dsp-console/internal/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// FormatError rejects an upload as structurally unusable. Processed is the
// number of rows that matched the campaign before the failure.
type FormatError struct {
	Reason    string
	Processed int
}

func (e *FormatError) Error() string { return e.Reason }

func (e *FormatError) Unwrap() error { return models.ErrInvalidFormat }

func formatErrorf(format string, args ...any) error {
	return &FormatError{Reason: fmt.Sprintf(format, args...)}
}

// ParseResult is the outcome of a successful parse.
type ParseResult struct {
	Rows      []models.PerformanceRow
	Processed int
	// Resolved maps each metric to the header that supplied it. Metrics
	// with no recognised header are absent and read as zero.
	Resolved map[Metric]string
}

// Parser reads performance sheets with a fixed synonym table.
type Parser struct {
	columns []ColumnMapping
}

func NewParser(columns []ColumnMapping) *Parser {
	if len(columns) == 0 {
		columns = DefaultColumns
	}
	return &Parser{columns: columns}
}

// Parse reads r as CSV when filename ends in .csv and as XLSX otherwise,
// keeping only the rows whose id column equals campaignID.
func (p *Parser) Parse(r io.Reader, filename string, campaignID int64) (*ParseResult, error) {
	table, err := readTable(r, filename)
	if err != nil {
		return nil, err
	}
	if len(table) == 0 {
		return nil, formatErrorf("file has no header row")
	}

	index := make(map[string]int, len(table[0]))
	for i, h := range table[0] {
		name := normalizeHeader(h)
		if _, dup := index[name]; !dup && name != "" {
			index[name] = i
		}
	}

	idCol, ok := index["id"]
	if !ok {
		return nil, formatErrorf("missing required column %q", "id")
	}
	dateCol, hasDate := index["date"]

	res := &ParseResult{Resolved: make(map[Metric]string, len(p.columns))}
	metricCols := make(map[Metric]int, len(p.columns))
	for _, m := range p.columns {
		for _, candidate := range m.Candidates {
			if i, ok := index[normalizeHeader(candidate)]; ok {
				metricCols[m.Metric] = i
				res.Resolved[m.Metric] = strings.TrimSpace(table[0][i])
				break
			}
		}
	}

	want := decimal.NewFromInt(campaignID)
	for _, line := range table[1:] {
		id, err := parseNumber(cell(line, idCol))
		if err != nil || !id.Equal(want) {
			continue
		}
		row := models.PerformanceRow{
			CampaignID:  campaignID,
			Impressions: metricValue(line, metricCols, MetricImpressions),
			Clicks:      metricValue(line, metricCols, MetricClicks),
			Views:       metricValue(line, metricCols, MetricViews),
			Spend:       metricValue(line, metricCols, MetricSpend),
		}
		if hasDate {
			row.Date = strings.TrimSpace(cell(line, dateCol))
		}
		res.Rows = append(res.Rows, row)
	}
	res.Processed = len(res.Rows)

	if res.Processed == 0 {
		return nil, &FormatError{Reason: fmt.Sprintf("no rows found for campaign %d", campaignID)}
	}
	return res, nil
}

func readTable(r io.Reader, filename string) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		cr.TrimLeadingSpace = true
		table, err := cr.ReadAll()
		if err != nil {
			return nil, formatErrorf("unreadable csv: %v", err)
		}
		return table, nil
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, formatErrorf("unreadable spreadsheet: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, formatErrorf("spreadsheet has no sheets")
	}
	table, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, formatErrorf("unreadable sheet %q: %v", sheets[0], err)
	}
	return table, nil
}

func cell(line []string, i int) string {
	if i < 0 || i >= len(line) {
		return ""
	}
	return line[i]
}

func metricValue(line []string, cols map[Metric]int, m Metric) decimal.Decimal {
	i, ok := cols[m]
	if !ok {
		return decimal.Zero
	}
	v, err := parseNumber(cell(line, i))
	if err != nil {
		return decimal.Zero
	}
	return v
}

var errEmptyCell = errors.New("empty cell")

// parseNumber accepts plain and thousands-separated numbers with an
// optional currency symbol.
func parseNumber(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$₹€£")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, errEmptyCell
	}
	return decimal.NewFromString(s)
}

var defaultParser = NewParser(nil)

// Parse uses DefaultColumns.
func Parse(r io.Reader, filename string, campaignID int64) (*ParseResult, error) {
	return defaultParser.Parse(r, filename, campaignID)
}
