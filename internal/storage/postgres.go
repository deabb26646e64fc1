package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/radiusdt/dsp-console/internal/models"
)

// PostgresCampaignRepo implements CampaignRepo, FileRepo and ReportStore
// using PostgreSQL.
type PostgresCampaignRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresCampaignRepo(pool *pgxpool.Pool) *PostgresCampaignRepo {
	return &PostgresCampaignRepo{pool: pool}
}

const campaignSelect = `
	SELECT c.id, c.user_id, COALESCE(u.username, ''), c.name,
		COALESCE(c.objective, ''), c.status, COALESCE(c.buy_type, ''),
		c.unit_rate, c.total_budget, c.day_part, c.landing_page, c.reports_url,
		c.start_time, c.end_time, c.viewability, c.brand_safety, c.targeting,
		ARRAY(SELECT cc.creative_id FROM campaign_creatives cc
			WHERE cc.campaign_id = c.id ORDER BY cc.creative_id),
		COALESCE(f.url, ''),
		c.impressions, c.clicks, c.views, c.ctr, c.vtr, c.spend,
		c.created_at, c.updated_at
	FROM campaigns c
	LEFT JOIN users u ON u.id = c.user_id
	LEFT JOIN campaign_files f ON f.campaign_id = c.id`

func scanCampaign(row pgx.Row) (*models.Campaign, error) {
	var c models.Campaign
	var objective, status, buyType string
	err := row.Scan(
		&c.ID, &c.UserID, &c.Owner, &c.Name,
		&objective, &status, &buyType,
		&c.UnitRate, &c.TotalBudget, &c.DayPart, &c.LandingPage, &c.ReportsURL,
		&c.StartTime, &c.EndTime, &c.Viewability, &c.BrandSafety, &c.Targeting,
		&c.CreativeIDs, &c.FileURL,
		&c.Impressions, &c.Clicks, &c.Views, &c.CTR, &c.VTR, &c.Spend,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Objective = models.Objective(objective)
	c.Status = models.Status(status)
	c.BuyType = models.BuyType(buyType)
	return &c, nil
}

func collectCampaigns(rows pgx.Rows) ([]*models.Campaign, error) {
	defer rows.Close()
	campaigns := make([]*models.Campaign, 0)
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

func (r *PostgresCampaignRepo) Create(ctx context.Context, c *models.Campaign) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO campaigns (user_id, name, objective, status, buy_type, unit_rate, total_budget,
			day_part, landing_page, reports_url, start_time, end_time, viewability, brand_safety,
			targeting, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id
	`, c.UserID, c.Name, string(c.Objective), string(c.Status), string(c.BuyType), c.UnitRate, c.TotalBudget,
		c.DayPart, c.LandingPage, c.ReportsURL, c.StartTime, c.EndTime, c.Viewability, c.BrandSafety,
		c.Targeting, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("failed to insert campaign: %w", err)
	}

	if err := replaceCreativeLinks(ctx, tx, c.ID, c.CreativeIDs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PostgresCampaignRepo) GetByID(ctx context.Context, id int64) (*models.Campaign, error) {
	c, err := scanCampaign(r.pool.QueryRow(ctx, campaignSelect+` WHERE c.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("campaign %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return c, nil
}

func (r *PostgresCampaignRepo) Update(ctx context.Context, c *models.Campaign) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE campaigns SET
			name = $2, objective = NULLIF($3, ''), status = $4, buy_type = NULLIF($5, ''),
			unit_rate = $6, total_budget = $7, day_part = $8, landing_page = $9,
			reports_url = $10, start_time = $11, end_time = $12, viewability = $13,
			brand_safety = $14, targeting = $15, updated_at = $16
		WHERE id = $1
	`, c.ID, c.Name, string(c.Objective), string(c.Status), string(c.BuyType),
		c.UnitRate, c.TotalBudget, c.DayPart, c.LandingPage,
		c.ReportsURL, c.StartTime, c.EndTime, c.Viewability,
		c.BrandSafety, c.Targeting, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update campaign: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("campaign %d: %w", c.ID, models.ErrNotFound)
	}

	if err := replaceCreativeLinks(ctx, tx, c.ID, c.CreativeIDs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func replaceCreativeLinks(ctx context.Context, tx pgx.Tx, campaignID int64, creativeIDs []int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM campaign_creatives WHERE campaign_id = $1`, campaignID); err != nil {
		return fmt.Errorf("failed to clear creative links: %w", err)
	}
	if len(creativeIDs) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO campaign_creatives (campaign_id, creative_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING
	`, campaignID, creativeIDs)
	if err != nil {
		return fmt.Errorf("failed to link creatives: %w", err)
	}
	return nil
}

// Delete removes the campaign. The artifact row and creative links go with
// it through ON DELETE CASCADE.
func (r *PostgresCampaignRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("campaign %d: %w", id, models.ErrNotFound)
	}
	return nil
}

func (r *PostgresCampaignRepo) List(ctx context.Context, vis Visibility, q CampaignQuery) ([]*models.Campaign, int, error) {
	scope, args := vis.Where("c.user_id", 1)
	where := []string{scope}

	if len(q.Terms) > 0 {
		var search string
		search, args = campaignSearch(q.Terms, args)
		where = append(where, search)
	}
	clause := " WHERE " + strings.Join(where, " AND ")

	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM campaigns c LEFT JOIN users u ON u.id = c.user_id`+clause, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count campaigns: %w", err)
	}

	query := campaignSelect + clause + ` ORDER BY c.updated_at DESC, c.id DESC`
	if q.PageSize > 0 {
		args = append(args, q.PageSize, (q.Page-1)*q.PageSize)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list campaigns: %w", err)
	}
	campaigns, err := collectCampaigns(rows)
	if err != nil {
		return nil, 0, err
	}
	return campaigns, total, nil
}

func (r *PostgresCampaignRepo) ListVisible(ctx context.Context, vis Visibility) ([]*models.Campaign, error) {
	scope, args := vis.Where("c.user_id", 1)
	rows, err := r.pool.Query(ctx, campaignSelect+` WHERE `+scope+` ORDER BY c.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return collectCampaigns(rows)
}

func (r *PostgresCampaignRepo) GetFile(ctx context.Context, campaignID int64) (*models.CampaignFile, error) {
	var f models.CampaignFile
	err := r.pool.QueryRow(ctx, `
		SELECT id, campaign_id, object_key, url, created_at, updated_at
		FROM campaign_files WHERE campaign_id = $1
	`, campaignID).Scan(&f.ID, &f.CampaignID, &f.ObjectKey, &f.URL, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("file for campaign %d: %w", campaignID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign file: %w", err)
	}
	return &f, nil
}

// InsertFile never replaces an artifact: an upload that committed first
// keeps its file.
func (r *PostgresCampaignRepo) InsertFile(ctx context.Context, f *models.CampaignFile) (*models.CampaignFile, bool, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO campaign_files (campaign_id, object_key, url, created_at, updated_at)
		SELECT id, $2, $3, $4, $4 FROM campaigns WHERE id = $1
		ON CONFLICT (campaign_id) DO NOTHING
		RETURNING id, created_at, updated_at
	`, f.CampaignID, f.ObjectKey, f.URL, now).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	if err == nil {
		cp := *f
		return &cp, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to insert campaign file: %w", err)
	}

	// Either the campaign is gone or another artifact is on record.
	existing, err := r.GetFile(ctx, f.CampaignID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, false, fmt.Errorf("campaign %d: %w", f.CampaignID, models.ErrNotFound)
	}
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func upsertFile(ctx context.Context, q queryRower, f *models.CampaignFile) error {
	now := time.Now().UTC()
	err := q.QueryRow(ctx, `
		INSERT INTO campaign_files (campaign_id, object_key, url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (campaign_id) DO UPDATE SET
			object_key = EXCLUDED.object_key,
			url = EXCLUDED.url,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at
	`, f.CampaignID, f.ObjectKey, f.URL, now).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert campaign file: %w", err)
	}
	return nil
}

// ApplyUpload locks the campaign row, replaces its counters and upserts the
// artifact in one transaction.
func (r *PostgresCampaignRepo) ApplyUpload(ctx context.Context, campaignID int64, totals models.Totals, f *models.CampaignFile) (string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var previous string
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(f.object_key, '')
		FROM campaigns c
		LEFT JOIN campaign_files f ON f.campaign_id = c.id
		WHERE c.id = $1
		FOR UPDATE OF c
	`, campaignID).Scan(&previous)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("campaign %d: %w", campaignID, models.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to lock campaign: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE campaigns SET
			impressions = $2, clicks = $3, views = $4,
			spend = $5, ctr = $6, vtr = $7, updated_at = now()
		WHERE id = $1
	`, campaignID, totals.Impressions, totals.Clicks, totals.Views, totals.Spend, totals.CTR, totals.VTR)
	if err != nil {
		return "", fmt.Errorf("failed to update counters: %w", err)
	}

	f.CampaignID = campaignID
	if err := upsertFile(ctx, tx, f); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit upload: %w", err)
	}
	return previous, nil
}

// campaignSearchColumns are matched case-insensitively by every search term.
var campaignSearchColumns = []string{"c.name", "c.status", "u.username", "u.email", "u.first_name", "u.last_name"}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns a raw term into a substring pattern where LIKE
// wildcards in the term match literally.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

// campaignSearch appends one placeholder per term to args and returns a
// clause matching a campaign when any term hits any search column.
func campaignSearch(terms []string, args []any) (string, []any) {
	ors := make([]string, 0, len(terms))
	for _, term := range terms {
		args = append(args, likePattern(term))
		n := len(args)
		cols := make([]string, len(campaignSearchColumns))
		for i, col := range campaignSearchColumns {
			cols[i] = fmt.Sprintf(`%s ILIKE $%d ESCAPE '\'`, col, n)
		}
		ors = append(ors, "("+strings.Join(cols, " OR ")+")")
	}
	return "(" + strings.Join(ors, " OR ") + ")", args
}
