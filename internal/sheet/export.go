package sheet

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/radiusdt/dsp-console/internal/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Sheet1"

// Headers returns the export header row for a projection: an empty
// lower-case date column followed by the surviving keys upper-cased.
func Headers(fields []models.Field) []string {
	headers := []string{"date"}
	for _, f := range fields {
		if !Denied(f.Key) {
			headers = append(headers, strings.ToUpper(f.Key))
		}
	}
	return headers
}

// Export writes a single-row XLSX report for the projection.
func Export(fields []models.Field) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	headers := Headers(fields)
	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}

	row := []any{""}
	for _, fld := range fields {
		if !Denied(fld.Key) {
			row = append(row, cellValue(fld.Value))
		}
	}

	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A2", &row); err != nil {
		return nil, fmt.Errorf("failed to write data row: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf, nil
}

func cellValue(v any) any {
	switch x := v.(type) {
	case nil:
		return ""
	case decimal.Decimal:
		return x.InexactFloat64()
	case decimal.NullDecimal:
		if !x.Valid {
			return ""
		}
		return x.Decimal.InexactFloat64()
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.UTC().Format(time.RFC3339)
	case []string:
		return strings.Join(x, ", ")
	case []int64:
		parts := make([]string, len(x))
		for i, id := range x {
			parts[i] = strconv.FormatInt(id, 10)
		}
		return strings.Join(parts, ", ")
	default:
		return x
	}
}
