package dsp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/radiusdt/dsp-console/internal/metrics"
	"github.com/radiusdt/dsp-console/internal/models"
	"github.com/radiusdt/dsp-console/internal/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const monthLayout = "2006-01"

// MonthlyPerformance is one month of the time-series rollup.
type MonthlyPerformance struct {
	Month       string          `json:"month"`
	Impressions int64           `json:"impressions"`
	Clicks      int64           `json:"clicks"`
	Views       int64           `json:"views"`
	Spend       decimal.Decimal `json:"spend"`
}

// MonthlyRates is one month of the rate rollup.
type MonthlyRates struct {
	Month       string          `json:"month"`
	Impressions int64           `json:"impressions"`
	Clicks      int64           `json:"clicks"`
	Views       int64           `json:"views"`
	CTR         decimal.Decimal `json:"ctr"`
	VTR         decimal.Decimal `json:"vtr"`
}

// Bucket is one slice of a distribution chart.
type Bucket struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// BuyTypeSpend is the rate×volume estimate for one buy type. It is not the
// uploaded spend.
type BuyTypeSpend struct {
	BuyType        string          `json:"buy_type"`
	EstimatedSpend decimal.Decimal `json:"estimated_spend"`
	Campaigns      int             `json:"campaigns"`
}

// Headline is the dashboard tile row.
type Headline struct {
	TotalCampaigns   int   `json:"total_campaigns"`
	TotalImpressions int64 `json:"total_impressions"`
	TotalClicks      int64 `json:"total_clicks"`
	TotalSpend       int64 `json:"total_spend"`
}

// PerformanceRollup sums counters per creation month for campaigns created
// at or after since. Months without campaigns are omitted.
func PerformanceRollup(campaigns []*models.Campaign, since time.Time) []MonthlyPerformance {
	byMonth := make(map[string]*MonthlyPerformance)
	for _, c := range campaigns {
		if c.CreatedAt.Before(since) {
			continue
		}
		month := c.CreatedAt.UTC().Format(monthLayout)
		m, ok := byMonth[month]
		if !ok {
			m = &MonthlyPerformance{Month: month}
			byMonth[month] = m
		}
		m.Impressions += c.Impressions
		m.Clicks += c.Clicks
		m.Views += c.Views
		m.Spend = m.Spend.Add(c.Spend)
	}

	res := make([]MonthlyPerformance, 0, len(byMonth))
	for _, m := range byMonth {
		res = append(res, *m)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Month < res[j].Month })
	return res
}

// RateRollup groups like PerformanceRollup but averages ctr and vtr over
// the month's campaigns.
func RateRollup(campaigns []*models.Campaign, since time.Time) []MonthlyRates {
	type acc struct {
		MonthlyRates
		ctrSum, vtrSum decimal.Decimal
		n              int64
	}
	byMonth := make(map[string]*acc)
	for _, c := range campaigns {
		if c.CreatedAt.Before(since) {
			continue
		}
		month := c.CreatedAt.UTC().Format(monthLayout)
		a, ok := byMonth[month]
		if !ok {
			a = &acc{MonthlyRates: MonthlyRates{Month: month}}
			byMonth[month] = a
		}
		a.Impressions += c.Impressions
		a.Clicks += c.Clicks
		a.Views += c.Views
		a.ctrSum = a.ctrSum.Add(c.CTR)
		a.vtrSum = a.vtrSum.Add(c.VTR)
		a.n++
	}

	res := make([]MonthlyRates, 0, len(byMonth))
	for _, a := range byMonth {
		n := decimal.NewFromInt(a.n)
		a.CTR = a.ctrSum.DivRound(n, ratePlaces)
		a.VTR = a.vtrSum.DivRound(n, ratePlaces)
		res = append(res, a.MonthlyRates)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Month < res[j].Month })
	return res
}

// StatusDistribution counts campaigns per status.
func StatusDistribution(campaigns []*models.Campaign) []Bucket {
	return distribution(campaigns, func(c *models.Campaign) string { return string(c.Status) })
}

// ObjectiveDistribution counts campaigns per objective, skipping campaigns
// without one.
func ObjectiveDistribution(campaigns []*models.Campaign) []Bucket {
	return distribution(campaigns, func(c *models.Campaign) string { return string(c.Objective) })
}

func distribution(campaigns []*models.Campaign, label func(*models.Campaign) string) []Bucket {
	counts := make(map[string]int)
	for _, c := range campaigns {
		if name := label(c); name != "" {
			counts[name]++
		}
	}
	res := make([]Bucket, 0, len(counts))
	for name, n := range counts {
		res = append(res, Bucket{Name: name, Value: n})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res
}

// EstimatedSpendByBuyType sums unit_rate × impressions per buy type.
// Campaigns without a buy type are skipped; a missing unit rate counts as
// zero.
func EstimatedSpendByBuyType(campaigns []*models.Campaign) []BuyTypeSpend {
	byType := make(map[string]*BuyTypeSpend)
	for _, c := range campaigns {
		if c.BuyType == "" {
			continue
		}
		b, ok := byType[string(c.BuyType)]
		if !ok {
			b = &BuyTypeSpend{BuyType: string(c.BuyType)}
			byType[string(c.BuyType)] = b
		}
		b.Campaigns++
		if c.UnitRate.Valid {
			b.EstimatedSpend = b.EstimatedSpend.Add(c.UnitRate.Decimal.Mul(decimal.NewFromInt(c.Impressions)))
		}
	}
	res := make([]BuyTypeSpend, 0, len(byType))
	for _, b := range byType {
		b.EstimatedSpend = b.EstimatedSpend.Round(ratePlaces)
		res = append(res, *b)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].BuyType < res[j].BuyType })
	return res
}

// HeadlineTiles totals the campaign set. TotalSpend is the uploaded spend
// truncated to an integer.
func HeadlineTiles(campaigns []*models.Campaign) Headline {
	h := Headline{TotalCampaigns: len(campaigns)}
	var spend decimal.Decimal
	for _, c := range campaigns {
		h.TotalImpressions += c.Impressions
		h.TotalClicks += c.Clicks
		spend = spend.Add(c.Spend)
	}
	h.TotalSpend = spend.IntPart()
	return h
}

// DashboardService scopes the reducers to the caller and caches results.
type DashboardService struct {
	repo    storage.CampaignRepo
	cache   DashboardCache
	window  time.Duration
	now     func() time.Time
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewDashboardService(repo storage.CampaignRepo, cache DashboardCache, windowDays int, m *metrics.Metrics, logger *zap.Logger) *DashboardService {
	if cache == nil {
		cache = noCache{}
	}
	if windowDays <= 0 {
		windowDays = 180
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		repo:    repo,
		cache:   cache,
		window:  time.Duration(windowDays) * 24 * time.Hour,
		now:     time.Now,
		metrics: m,
		logger:  logger,
	}
}

func (s *DashboardService) since() time.Time {
	return s.now().UTC().Add(-s.window)
}

func (s *DashboardService) Performance(ctx context.Context, actor models.Actor) ([]MonthlyPerformance, error) {
	return summarize(ctx, s, "performance", actor, func(cs []*models.Campaign) []MonthlyPerformance {
		return PerformanceRollup(cs, s.since())
	})
}

func (s *DashboardService) RateMetrics(ctx context.Context, actor models.Actor) ([]MonthlyRates, error) {
	return summarize(ctx, s, "rates", actor, func(cs []*models.Campaign) []MonthlyRates {
		return RateRollup(cs, s.since())
	})
}

func (s *DashboardService) StatusDistribution(ctx context.Context, actor models.Actor) ([]Bucket, error) {
	return summarize(ctx, s, "status", actor, StatusDistribution)
}

func (s *DashboardService) ObjectiveDistribution(ctx context.Context, actor models.Actor) ([]Bucket, error) {
	return summarize(ctx, s, "objective", actor, ObjectiveDistribution)
}

func (s *DashboardService) BuyTypeSpend(ctx context.Context, actor models.Actor) ([]BuyTypeSpend, error) {
	return summarize(ctx, s, "buy_type_spend", actor, EstimatedSpendByBuyType)
}

func (s *DashboardService) Headline(ctx context.Context, actor models.Actor) (Headline, error) {
	return summarize(ctx, s, "headline", actor, HeadlineTiles)
}

// summarize loads the actor's visible campaigns once and runs reduce over
// them, going through the cache keyed by reducer and scope.
func summarize[T any](ctx context.Context, s *DashboardService, reducer string, actor models.Actor, reduce func([]*models.Campaign) T) (T, error) {
	start := time.Now()
	vis := storage.VisibilityFor(actor)
	key := reducer + ":" + vis.Key()

	var out T
	if b, ok := s.cache.Get(ctx, key); ok {
		if err := json.Unmarshal(b, &out); err == nil {
			s.metrics.RecordDashboard(reducer, true, time.Since(start))
			return out, nil
		}
	}

	campaigns, err := s.repo.ListVisible(ctx, vis)
	if err != nil {
		return out, fmt.Errorf("failed to load campaigns for %s: %w", reducer, err)
	}
	out = reduce(campaigns)

	if b, err := json.Marshal(out); err == nil {
		s.cache.Set(ctx, key, b)
	} else {
		s.logger.Warn("Failed to cache dashboard result", zap.String("reducer", reducer), zap.Error(err))
	}
	s.metrics.RecordDashboard(reducer, false, time.Since(start))
	return out, nil
}
