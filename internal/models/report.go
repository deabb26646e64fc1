package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PerformanceRow is one parsed line of an uploaded performance sheet.
// It lives only for the duration of an upload.
type PerformanceRow struct {
	CampaignID  int64           `json:"campaign_id"`
	Date        string          `json:"date,omitempty"`
	Impressions decimal.Decimal `json:"impressions"`
	Clicks      decimal.Decimal `json:"clicks"`
	Views       decimal.Decimal `json:"views"`
	Spend       decimal.Decimal `json:"spend"`
}

// Totals is the reduced form of a batch of PerformanceRows.
type Totals struct {
	Impressions int64           `json:"impressions"`
	Clicks      int64           `json:"clicks"`
	Views       int64           `json:"views"`
	Spend       decimal.Decimal `json:"spend"`
	CTR         decimal.Decimal `json:"ctr"`
	VTR         decimal.Decimal `json:"vtr"`
}

// CampaignFile is the single report artifact attached to a campaign.
type CampaignFile struct {
	ID         int64     `json:"id"`
	CampaignID int64     `json:"campaign_id"`
	ObjectKey  string    `json:"object_key"`
	URL        string    `json:"url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Report link states returned by the report-fetch endpoint.
const (
	ReportExists  = "exists"
	ReportCreated = "created"
)

// ReportLink points a caller at a campaign's artifact.
type ReportLink struct {
	CampaignID int64  `json:"campaign_id"`
	FileURL    string `json:"file_url"`
	Status     string `json:"status"`
}

// UploadResult summarises an accepted performance upload.
type UploadResult struct {
	CampaignID    int64  `json:"campaign_id"`
	RowsProcessed int    `json:"rows_processed"`
	Totals        Totals `json:"totals"`
	FileURL       string `json:"file_url"`
}
