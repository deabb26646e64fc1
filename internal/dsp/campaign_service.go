package dsp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/radiusdt/dsp-console/internal/metrics"
	"github.com/radiusdt/dsp-console/internal/models"
	"github.com/radiusdt/dsp-console/internal/storage"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// CampaignPage is one page of a campaign listing.
type CampaignPage struct {
	Count    int                `json:"count"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	Results  []*models.Campaign `json:"results"`
}

// CampaignService provides CRUD operations over campaigns. It applies the
// visibility rule and manages timestamps; derived counters are never
// written here.
type CampaignService struct {
	repo    storage.CampaignRepo
	files   storage.FileRepo
	reports *ReportService
	cache   DashboardCache
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewCampaignService constructs a CampaignService. reports generates the
// initial artifact on create.
func NewCampaignService(repo storage.CampaignRepo, files storage.FileRepo, reports *ReportService, cache DashboardCache, m *metrics.Metrics, logger *zap.Logger) *CampaignService {
	if cache == nil {
		cache = noCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CampaignService{
		repo:    repo,
		files:   files,
		reports: reports,
		cache:   cache,
		metrics: m,
		logger:  logger,
	}
}

// ListCampaigns returns one page of the actor's visible campaigns. query is
// a comma-separated list of search terms.
func (s *CampaignService) ListCampaigns(ctx context.Context, actor models.Actor, query string, page, pageSize int) (*CampaignPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	var terms []string
	for _, t := range strings.Split(query, ",") {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}

	results, total, err := s.repo.List(ctx, storage.VisibilityFor(actor), storage.CampaignQuery{
		Terms:    terms,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return &CampaignPage{Count: total, Page: page, PageSize: pageSize, Results: results}, nil
}

// GetCampaign returns a campaign by ID.
func (s *CampaignService) GetCampaign(ctx context.Context, actor models.Actor, id int64) (*models.Campaign, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, c); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateCampaign stores a new campaign owned by the actor together with its
// initial report artifact. If the artifact cannot be produced the campaign
// is deleted again.
func (s *CampaignService) CreateCampaign(ctx context.Context, actor models.Actor, in models.CampaignInput) (*models.Campaign, error) {
	owner := actor.UserID
	c := &models.Campaign{UserID: &owner, Status: models.StatusCreated}
	in.Apply(c)
	if err := c.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	if _, _, err := s.reports.CreateArtifact(ctx, c); err != nil {
		s.metrics.RecordCompensation("campaign_create")
		if delErr := s.repo.Delete(context.WithoutCancel(ctx), c.ID); delErr != nil {
			s.logger.Error("Failed to roll back campaign",
				zap.Int64("campaign_id", c.ID),
				zap.Error(delErr),
			)
		}
		s.logger.Error("Campaign artifact creation failed",
			zap.Int64("campaign_id", c.ID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to create campaign report: %w", err)
	}

	s.cache.Invalidate(ctx)
	return s.repo.GetByID(ctx, c.ID)
}

// UpdateCampaign applies the set fields of in.
func (s *CampaignService) UpdateCampaign(ctx context.Context, actor models.Actor, id int64, in models.CampaignInput) (*models.Campaign, error) {
	c, err := s.GetCampaign(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	in.Apply(c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}
	s.cache.Invalidate(ctx)
	return s.repo.GetByID(ctx, id)
}

// DeleteCampaign removes a campaign and its artifact.
func (s *CampaignService) DeleteCampaign(ctx context.Context, actor models.Actor, id int64) error {
	if _, err := s.GetCampaign(ctx, actor, id); err != nil {
		return err
	}
	f, err := s.files.GetFile(ctx, id)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to load report artifact: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	s.reports.RemoveArtifact(ctx, f)
	s.cache.Invalidate(ctx)
	return nil
}
