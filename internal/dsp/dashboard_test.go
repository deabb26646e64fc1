package dsp

import (
	"context"
	"testing"
	"time"

	"github.com/radiusdt/dsp-console/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func rate(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestHeadlineTilesScopedByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, &models.Campaign{UserID: ownedBy(1), Name: "a1", Impressions: 100, Clicks: 10, Spend: decimal.RequireFromString("10.75")})
	f.seed(t, &models.Campaign{UserID: ownedBy(1), Name: "a2", Impressions: 50, Clicks: 5, Spend: decimal.RequireFromString("4.50")})
	f.seed(t, &models.Campaign{UserID: ownedBy(2), Name: "b1", Impressions: 1000, Clicks: 1, Spend: decimal.RequireFromString("100")})

	first, err := f.dashboard.Headline(ctx, models.Actor{UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, Headline{TotalCampaigns: 2, TotalImpressions: 150, TotalClicks: 15, TotalSpend: 15}, first)

	second, err := f.dashboard.Headline(ctx, models.Actor{UserID: 2})
	require.NoError(t, err)
	assert.Equal(t, Headline{TotalCampaigns: 1, TotalImpressions: 1000, TotalClicks: 1, TotalSpend: 100}, second)

	manager, err := f.dashboard.Headline(ctx, models.Actor{UserID: 3, Manager: true})
	require.NoError(t, err)
	assert.Equal(t, Headline{TotalCampaigns: 3, TotalImpressions: 1150, TotalClicks: 16, TotalSpend: 115}, manager)
}

func TestPerformanceRollupOmitsEmptyMonths(t *testing.T) {
	campaigns := []*models.Campaign{
		{CreatedAt: day("2026-05-01"), Impressions: 10, Clicks: 1, Views: 2, Spend: decimal.RequireFromString("1.25")},
		{CreatedAt: day("2026-05-20"), Impressions: 5, Clicks: 1, Views: 0, Spend: decimal.RequireFromString("0.75")},
		{CreatedAt: day("2026-03-10"), Impressions: 7},
		{CreatedAt: day("2025-01-01"), Impressions: 1000},
	}

	got := PerformanceRollup(campaigns, day("2026-06-15").AddDate(0, 0, -180))

	require.Len(t, got, 2)
	assert.Equal(t, "2026-03", got[0].Month)
	assert.Equal(t, int64(7), got[0].Impressions)
	assert.Equal(t, "2026-05", got[1].Month)
	assert.Equal(t, int64(15), got[1].Impressions)
	assert.Equal(t, int64(2), got[1].Clicks)
	assert.Equal(t, "2.00", got[1].Spend.StringFixed(2))
}

func TestRateRollupAverages(t *testing.T) {
	campaigns := []*models.Campaign{
		{CreatedAt: day("2026-05-01"), CTR: decimal.RequireFromString("5.00"), VTR: decimal.RequireFromString("80.00")},
		{CreatedAt: day("2026-05-02"), CTR: decimal.RequireFromString("2.00"), VTR: decimal.RequireFromString("10.01")},
		{CreatedAt: day("2026-05-03"), CTR: decimal.RequireFromString("0.00"), VTR: decimal.RequireFromString("0.00")},
	}

	got := RateRollup(campaigns, day("2026-01-01"))

	require.Len(t, got, 1)
	assert.Equal(t, "2.33", got[0].CTR.StringFixed(2))
	assert.Equal(t, "30.00", got[0].VTR.StringFixed(2))
}

func TestDistributions(t *testing.T) {
	campaigns := []*models.Campaign{
		{Status: models.StatusLive, Objective: models.ObjectiveBanner},
		{Status: models.StatusLive, Objective: models.ObjectiveVideo},
		{Status: models.StatusCreated},
	}

	assert.Equal(t, []Bucket{{"Created", 1}, {"Live", 2}}, StatusDistribution(campaigns))
	assert.Equal(t, []Bucket{{"Banner", 1}, {"Video", 1}}, ObjectiveDistribution(campaigns))
}

func TestEstimatedSpendIsRateTimesVolume(t *testing.T) {
	campaigns := []*models.Campaign{
		{BuyType: models.BuyTypeCPM, UnitRate: rate("0.25"), Impressions: 1000, Spend: decimal.RequireFromString("999")},
		{BuyType: models.BuyTypeCPM, UnitRate: rate("1.10"), Impressions: 3},
		{BuyType: models.BuyTypeCPC, Impressions: 50},
		{Impressions: 1_000_000, UnitRate: rate("9")},
	}

	got := EstimatedSpendByBuyType(campaigns)

	require.Len(t, got, 2)
	assert.Equal(t, "CPC", got[0].BuyType)
	assert.True(t, got[0].EstimatedSpend.IsZero())
	assert.Equal(t, 1, got[0].Campaigns)
	assert.Equal(t, "CPM", got[1].BuyType)
	assert.Equal(t, "253.30", got[1].EstimatedSpend.StringFixed(2))
	assert.Equal(t, 2, got[1].Campaigns)
}

func TestDashboardCacheInvalidatedByWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := models.Actor{UserID: 1}
	f.seed(t, &models.Campaign{UserID: ownedBy(1), Name: "a", Impressions: 10})

	h, err := f.dashboard.Headline(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, h.TotalCampaigns)

	// a direct store write is not seen until the cache is invalidated
	f.seed(t, &models.Campaign{UserID: ownedBy(1), Name: "b"})
	h, _ = f.dashboard.Headline(ctx, owner)
	assert.Equal(t, 1, h.TotalCampaigns)

	name := "c"
	_, err = f.campaigns.CreateCampaign(ctx, owner, models.CampaignInput{Name: &name})
	require.NoError(t, err)
	h, _ = f.dashboard.Headline(ctx, owner)
	assert.Equal(t, 3, h.TotalCampaigns)
}

func TestDashboardPerformanceUsesWindow(t *testing.T) {
	f := newFixture(t)
	f.dashboard.now = func() time.Time { return day("2026-06-15") }
	f.seed(t, &models.Campaign{UserID: ownedBy(1), Name: "old", CreatedAt: day("2025-06-01"), Impressions: 5})
	f.seed(t, &models.Campaign{UserID: ownedBy(1), Name: "new", CreatedAt: day("2026-06-01"), Impressions: 9})

	got, err := f.dashboard.Performance(context.Background(), models.Actor{UserID: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2026-06", got[0].Month)
	assert.Equal(t, int64(9), got[0].Impressions)
}
