package storage

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/radiusdt/dsp-console/internal/config"
	"github.com/radiusdt/dsp-console/internal/database"
	"github.com/radiusdt/dsp-console/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// postgresPool migrates and connects to the database named by the DSP_DB_*
// variables. The tests write real rows, so they only run when
// DSP_TEST_POSTGRES is set and should point at a scratch database.
func postgresPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres test in short mode")
	}
	if os.Getenv("DSP_TEST_POSTGRES") == "" {
		t.Skip("set DSP_TEST_POSTGRES=1 and DSP_DB_* to run postgres tests")
	}
	t.Setenv("DSP_ENV", "development")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.NoError(t, database.Migrate(cfg.Database, zap.NewNop()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, pool.Ping(ctx))
	return pool
}

// seedPostgresUser inserts a user with unique login fields and removes it,
// together with its campaigns, when the test ends.
func seedPostgresUser(t *testing.T, pool *pgxpool.Pool, first string) *models.User {
	t.Helper()
	ctx := context.Background()
	tag := uuid.NewString()[:8]
	now := time.Now().UTC()
	u := &models.User{
		Username:     "pg-" + tag,
		Email:        "pg-" + tag + "@example.com",
		FirstName:    first,
		LastName:     "Tester",
		PasswordHash: "x",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, NewPostgresUserRepo(pool).Create(ctx, u))
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM campaigns WHERE user_id = $1`, u.ID)
		_, _ = pool.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, u.ID)
	})
	return u
}

func TestPostgresApplyUploadReplacesArtifact(t *testing.T) {
	pool := postgresPool(t)
	ctx := context.Background()
	repo := NewPostgresCampaignRepo(pool)
	owner := seedPostgresUser(t, pool, "Ana")

	c := ownedCampaign(owner.ID, "launch")
	require.NoError(t, repo.Create(ctx, c))

	stored, created, err := repo.InsertFile(ctx, &models.CampaignFile{CampaignID: c.ID, ObjectKey: "generated.xlsx", URL: "http://files/generated.xlsx"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "generated.xlsx", stored.ObjectKey)

	stored, created, err = repo.InsertFile(ctx, &models.CampaignFile{CampaignID: c.ID, ObjectKey: "late.xlsx", URL: "http://files/late.xlsx"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "generated.xlsx", stored.ObjectKey)

	totals := models.Totals{
		Impressions: 1000,
		Clicks:      50,
		Views:       400,
		Spend:       decimal.RequireFromString("120.50"),
		CTR:         decimal.RequireFromString("5.00"),
		VTR:         decimal.RequireFromString("40.00"),
	}
	previous, err := repo.ApplyUpload(ctx, c.ID, totals, &models.CampaignFile{ObjectKey: "upload.xlsx", URL: "http://files/upload.xlsx"})
	require.NoError(t, err)
	assert.Equal(t, "generated.xlsx", previous)

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got.Impressions)
	assert.Equal(t, int64(50), got.Clicks)
	assert.Equal(t, int64(400), got.Views)
	assert.True(t, got.Spend.Equal(totals.Spend))
	assert.True(t, got.CTR.Equal(totals.CTR))
	assert.Equal(t, "http://files/upload.xlsx", got.FileURL)

	f, err := repo.GetFile(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "upload.xlsx", f.ObjectKey)

	_, err = repo.ApplyUpload(ctx, c.ID+1_000_000, totals, &models.CampaignFile{ObjectKey: "x", URL: "x"})
	assert.True(t, errors.Is(err, models.ErrNotFound))
	_, _, err = repo.InsertFile(ctx, &models.CampaignFile{CampaignID: c.ID + 1_000_000, ObjectKey: "x", URL: "x"})
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestPostgresListSearchAndPaging(t *testing.T) {
	pool := postgresPool(t)
	ctx := context.Background()
	repo := NewPostgresCampaignRepo(pool)
	owner := seedPostgresUser(t, pool, "Quintessa")

	for i, name := range []string{"Spring", "Autumn 50% off", "Winter"} {
		c := ownedCampaign(owner.ID, name)
		c.UpdatedAt = c.UpdatedAt.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(ctx, c))
	}
	vis := VisibilityFor(models.Actor{UserID: owner.ID})

	list, total, err := repo.List(ctx, vis, CampaignQuery{Terms: []string{"%"}, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, "Autumn 50% off", list[0].Name)
	assert.Equal(t, owner.Username, list[0].Owner)

	_, total, err = repo.List(ctx, vis, CampaignQuery{Terms: []string{"_"}, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Zero(t, total)

	_, total, err = repo.List(ctx, vis, CampaignQuery{Terms: []string{"quintessa"}, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	_, total, err = repo.List(ctx, vis, CampaignQuery{Terms: []string{owner.Email}, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	page, total, err := repo.List(ctx, vis, CampaignQuery{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 1)
	assert.Equal(t, "Spring", page[0].Name)
}

func TestPostgresUserUpdateAndList(t *testing.T) {
	pool := postgresPool(t)
	ctx := context.Background()
	users := NewPostgresUserRepo(pool)
	ana := seedPostgresUser(t, pool, "Ana")
	bob := seedPostgresUser(t, pool, "Bob")

	ana.Profile.City = "Pune"
	ana.LastName = "Renamed"
	require.NoError(t, users.Update(ctx, ana))
	got, err := users.GetByID(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pune", got.Profile.City)
	assert.Equal(t, "Renamed", got.LastName)
	assert.Equal(t, ana.Username, got.Username)

	clash := *bob
	clash.Email = ana.Email
	err = users.Update(ctx, &clash)
	assert.True(t, errors.Is(err, models.ErrConflict))

	missing := *bob
	missing.ID = bob.ID + 1_000_000
	missing.Email = "nobody-" + uuid.NewString()[:8] + "@example.com"
	err = users.Update(ctx, &missing)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	list, total, err := users.List(ctx, 1, 1000)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, total, 2)
	var ids []int64
	for _, u := range list {
		ids = append(ids, u.ID)
	}
	assert.IsIncreasing(t, ids)
}
