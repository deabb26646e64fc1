package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/radiusdt/dsp-console/internal/models"
	"github.com/shopspring/decimal"
)

// LedgerUpload summarises one accepted upload in the ledger.
type LedgerUpload struct {
	UploadID    string          `json:"upload_id"`
	CampaignID  int64           `json:"campaign_id"`
	Rows        int64           `json:"rows"`
	Impressions decimal.Decimal `json:"impressions"`
	Clicks      decimal.Decimal `json:"clicks"`
	Views       decimal.Decimal `json:"views"`
	Spend       decimal.Decimal `json:"spend"`
	IngestedAt  time.Time       `json:"ingested_at"`
}

// ClickHouseLedger appends accepted upload rows to a MergeTree table so the
// history survives the full-replace semantics of the campaign counters.
type ClickHouseLedger struct {
	conn driver.Conn
}

func NewClickHouseLedger(conn driver.Conn) *ClickHouseLedger {
	return &ClickHouseLedger{conn: conn}
}

// EnsureSchema creates the ledger table when missing.
func (l *ClickHouseLedger) EnsureSchema(ctx context.Context) error {
	err := l.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS performance_rows (
			upload_id   String,
			campaign_id Int64,
			report_date String,
			impressions Decimal(18, 2),
			clicks      Decimal(18, 2),
			views       Decimal(18, 2),
			spend       Decimal(18, 4),
			ingested_at DateTime
		) ENGINE = MergeTree
		ORDER BY (campaign_id, ingested_at)
	`)
	if err != nil {
		return fmt.Errorf("failed to create performance_rows: %w", err)
	}
	return nil
}

func (l *ClickHouseLedger) Append(ctx context.Context, uploadID string, rows []models.PerformanceRow) error {
	if len(rows) == 0 {
		return nil
	}
	batch, err := l.conn.PrepareBatch(ctx, "INSERT INTO performance_rows")
	if err != nil {
		return fmt.Errorf("failed to prepare ledger batch: %w", err)
	}
	now := time.Now().UTC()
	for _, r := range rows {
		if err := batch.Append(uploadID, r.CampaignID, r.Date, r.Impressions, r.Clicks, r.Views, r.Spend, now); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("failed to append ledger row: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send ledger batch: %w", err)
	}
	return nil
}

// History returns the most recent uploads of a campaign, newest first.
func (l *ClickHouseLedger) History(ctx context.Context, campaignID int64, limit int) ([]LedgerUpload, error) {
	rows, err := l.conn.Query(ctx, `
		SELECT upload_id, campaign_id, count() AS rows,
			sum(impressions), sum(clicks), sum(views), sum(spend),
			max(ingested_at) AS ingested
		FROM performance_rows
		WHERE campaign_id = ?
		GROUP BY upload_id, campaign_id
		ORDER BY ingested DESC
		LIMIT ?
	`, campaignID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	var uploads []LedgerUpload
	for rows.Next() {
		var u LedgerUpload
		var count uint64
		if err := rows.Scan(&u.UploadID, &u.CampaignID, &count, &u.Impressions, &u.Clicks, &u.Views, &u.Spend, &u.IngestedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		u.Rows = int64(count)
		uploads = append(uploads, u)
	}
	return uploads, rows.Err()
}

// InMemoryLedger keeps ledger rows in memory for tests and development.
type InMemoryLedger struct {
	mu      sync.Mutex
	uploads []LedgerUpload
}

func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{}
}

func (l *InMemoryLedger) Append(_ context.Context, uploadID string, rows []models.PerformanceRow) error {
	if len(rows) == 0 {
		return nil
	}
	u := LedgerUpload{UploadID: uploadID, CampaignID: rows[0].CampaignID, IngestedAt: time.Now().UTC()}
	for _, r := range rows {
		u.Rows++
		u.Impressions = u.Impressions.Add(r.Impressions)
		u.Clicks = u.Clicks.Add(r.Clicks)
		u.Views = u.Views.Add(r.Views)
		u.Spend = u.Spend.Add(r.Spend)
	}
	l.mu.Lock()
	l.uploads = append(l.uploads, u)
	l.mu.Unlock()
	return nil
}

func (l *InMemoryLedger) History(_ context.Context, campaignID int64, limit int) ([]LedgerUpload, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var res []LedgerUpload
	for i := len(l.uploads) - 1; i >= 0; i-- {
		if l.uploads[i].CampaignID == campaignID {
			res = append(res, l.uploads[i])
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].IngestedAt.After(res[j].IngestedAt) })
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}
