package dsp

import (
	"fmt"
	"math"

	"github.com/radiusdt/dsp-console/internal/models"
	"github.com/radiusdt/dsp-console/internal/sheet"
	"github.com/shopspring/decimal"
)

// ratePlaces is the precision of ctr, vtr and spend.
const ratePlaces = 2

var (
	hundred = decimal.NewFromInt(100)

	// maxCounter is the largest value a BIGINT counter column holds.
	maxCounter = decimal.NewFromInt(math.MaxInt64)
	// maxAmount is the largest magnitude a NUMERIC(12,2) column holds.
	maxAmount = decimal.RequireFromString("9999999999.99")
)

// Aggregate reduces parsed rows to campaign totals. Counter sums are
// truncated toward zero and clamped at zero; spend is rounded half-up to
// two places. All arithmetic is fixed-point. Totals that do not fit the
// stored columns are rejected with a *sheet.FormatError.
func Aggregate(rows []models.PerformanceRow) (models.Totals, error) {
	var impressions, clicks, views, spend decimal.Decimal
	for _, r := range rows {
		impressions = impressions.Add(r.Impressions)
		clicks = clicks.Add(r.Clicks)
		views = views.Add(r.Views)
		spend = spend.Add(r.Spend)
	}

	for _, c := range []struct {
		name string
		sum  decimal.Decimal
	}{
		{"impressions", impressions},
		{"clicks", clicks},
		{"views", views},
	} {
		if c.sum.GreaterThan(maxCounter) {
			return models.Totals{}, outOfRange(len(rows), "%s total %s exceeds %d", c.name, c.sum.String(), int64(math.MaxInt64))
		}
	}

	t := models.Totals{
		Impressions: counter(impressions),
		Clicks:      counter(clicks),
		Views:       counter(views),
		Spend:       spend.Round(ratePlaces),
	}
	if t.Spend.Abs().GreaterThan(maxAmount) {
		return models.Totals{}, outOfRange(len(rows), "spend total %s exceeds %s", t.Spend.String(), maxAmount.String())
	}

	t.CTR = Rate(t.Clicks, t.Impressions)
	t.VTR = Rate(t.Views, t.Impressions)
	if t.CTR.GreaterThan(maxAmount) || t.VTR.GreaterThan(maxAmount) {
		return models.Totals{}, outOfRange(len(rows), "clicks or views are too large relative to %d impressions", t.Impressions)
	}
	return t, nil
}

func outOfRange(rows int, format string, args ...any) error {
	return &sheet.FormatError{Reason: fmt.Sprintf(format, args...), Processed: rows}
}

// Rate returns part/whole*100 rounded half-up to two places, or zero when
// whole is zero. It is not clamped to 100.
func Rate(part, whole int64) decimal.Decimal {
	if whole == 0 {
		return decimal.Zero.Round(ratePlaces)
	}
	return decimal.NewFromInt(part).Mul(hundred).DivRound(decimal.NewFromInt(whole), ratePlaces)
}

func counter(d decimal.Decimal) int64 {
	if d.IsNegative() {
		return 0
	}
	return d.IntPart()
}
