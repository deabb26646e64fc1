package storage

import (
	"context"

	"github.com/radiusdt/dsp-console/internal/models"
)

// =============================================
// CAMPAIGN REPOSITORY
// =============================================

// CampaignQuery narrows a campaign listing. Terms are matched
// case-insensitively against name, status and owner username; a campaign
// matches when any term matches.
type CampaignQuery struct {
	Terms    []string
	Page     int
	PageSize int
}

// CampaignRepo defines operations for campaign storage. Derived counters
// are never written through Create or Update.
type CampaignRepo interface {
	Create(ctx context.Context, c *models.Campaign) error
	GetByID(ctx context.Context, id int64) (*models.Campaign, error)
	Update(ctx context.Context, c *models.Campaign) error
	Delete(ctx context.Context, id int64) error

	// List returns one page ordered by updated_at descending plus the
	// total number of matches.
	List(ctx context.Context, vis Visibility, q CampaignQuery) ([]*models.Campaign, int, error)
	// ListVisible returns every campaign the scope allows.
	ListVisible(ctx context.Context, vis Visibility) ([]*models.Campaign, error)
}

// =============================================
// REPORT ARTIFACTS
// =============================================

// FileRepo stores the one report artifact per campaign.
type FileRepo interface {
	GetFile(ctx context.Context, campaignID int64) (*models.CampaignFile, error)
	// InsertFile records f unless the campaign already has an artifact.
	// It returns the artifact now on record and whether f became it.
	InsertFile(ctx context.Context, f *models.CampaignFile) (*models.CampaignFile, bool, error)
}

// ReportStore applies an accepted upload.
type ReportStore interface {
	// ApplyUpload replaces the campaign's derived counters and upserts its
	// artifact atomically. It returns the object key of the artifact that
	// was replaced, or "" when there was none.
	ApplyUpload(ctx context.Context, campaignID int64, totals models.Totals, f *models.CampaignFile) (string, error)
}

// =============================================
// USERS / CREATIVES / LOOKUPS
// =============================================

// UserRepo defines operations for console accounts.
type UserRepo interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	// GetByLogin resolves a username or an email address.
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
	// Update writes the editable account and profile fields.
	Update(ctx context.Context, u *models.User) error
	// List returns one page of accounts ordered by id plus the total count.
	List(ctx context.Context, page, pageSize int) ([]*models.User, int, error)
}

// CreativeRepo defines operations for creative assets.
type CreativeRepo interface {
	Create(ctx context.Context, c *models.Creative) error
	ListByUser(ctx context.Context, userID int64, query string) ([]*models.Creative, error)
}

// LookupRepo serves the read-only targeting tables.
type LookupRepo interface {
	Values(ctx context.Context, kind models.LookupKind) ([]models.LookupValue, error)
	Locations(ctx context.Context) ([]models.Location, error)
	TargetTypes(ctx context.Context, query string) ([]models.TargetType, error)
}

// =============================================
// PERFORMANCE LEDGER
// =============================================

// PerformanceLedger keeps an append-only history of accepted upload rows.
type PerformanceLedger interface {
	Append(ctx context.Context, uploadID string, rows []models.PerformanceRow) error
	History(ctx context.Context, campaignID int64, limit int) ([]LedgerUpload, error)
}
