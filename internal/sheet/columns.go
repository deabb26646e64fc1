// Package sheet converts campaigns to report spreadsheets and parses
// uploaded performance sheets back into rows.
package sheet

import (
	"strings"

	"github.com/radiusdt/dsp-console/internal/config"
)

// Metric is a canonical performance field.
type Metric string

const (
	MetricImpressions Metric = "impressions"
	MetricClicks      Metric = "clicks"
	MetricViews       Metric = "views"
	MetricSpend       Metric = "spend"
)

// ColumnMapping lists the header names accepted for a metric, in priority
// order. Matching is case-insensitive on trimmed headers.
type ColumnMapping struct {
	Metric     Metric
	Candidates []string
}

// DefaultColumns is the built-in synonym table.
var DefaultColumns = []ColumnMapping{
	{MetricImpressions, []string{"impressions", "impression", "imps"}},
	{MetricClicks, []string{"clicks", "click"}},
	{MetricViews, []string{"views", "view", "video views"}},
	{MetricSpend, []string{"spend", "payment", "payments", "cost", "amount spent"}},
}

// ColumnsFromConfig returns DefaultColumns with any configured overrides
// replacing a metric's candidate list.
func ColumnsFromConfig(cfg config.SheetConfig) []ColumnMapping {
	overrides := map[Metric][]string{
		MetricImpressions: cfg.Impressions,
		MetricClicks:      cfg.Clicks,
		MetricViews:       cfg.Views,
		MetricSpend:       cfg.Spend,
	}
	cols := make([]ColumnMapping, len(DefaultColumns))
	for i, m := range DefaultColumns {
		cols[i] = m
		if o := overrides[m.Metric]; len(o) > 0 {
			cols[i].Candidates = o
		}
	}
	return cols
}

// exportDenylist holds the projection keys that never reach a report:
// relational sets, free text and internal bookkeeping.
var exportDenylist = map[string]struct{}{
	"images": {}, "keywords": {}, "proximity_store": {}, "proximity": {},
	"weather": {}, "target_type": {}, "location": {}, "video": {},
	"tag_tracker": {}, "age": {}, "carrier_data": {}, "environment": {},
	"exchange": {}, "language": {}, "impression": {}, "device_price": {},
	"device": {}, "created_at": {}, "updated_at": {}, "carrier": {},
	"landing_page": {}, "reports_url": {}, "start_time": {}, "end_time": {},
	"status": {}, "day_part": {}, "objective": {}, "user": {},
	"campaign_files": {}, "total_budget": {}, "viewability": {},
	"brand_safety": {}, "buy_type": {}, "unit_rate": {}, "creative": {},
}

// Denied reports whether key is dropped from exports.
func Denied(key string) bool {
	_, ok := exportDenylist[strings.ToLower(key)]
	return ok
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
}
