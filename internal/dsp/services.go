package dsp

import (
	"context"
	"fmt"
	"time"

	"github.com/radiusdt/dsp-console/internal/metrics"
	"github.com/radiusdt/dsp-console/internal/models"
	"github.com/radiusdt/dsp-console/internal/objectstore"
	"github.com/radiusdt/dsp-console/internal/storage"
	"go.uber.org/zap"
)

// CreativeService stores creative assets for their owner.
type CreativeService struct {
	repo    storage.CreativeRepo
	blobs   objectstore.Store
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewCreativeService constructs a new CreativeService.
func NewCreativeService(repo storage.CreativeRepo, blobs objectstore.Store, m *metrics.Metrics, logger *zap.Logger) *CreativeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CreativeService{repo: repo, blobs: blobs, metrics: m, logger: logger}
}

// ListCreatives returns the actor's creatives, optionally filtered by name.
func (s *CreativeService) ListCreatives(ctx context.Context, actor models.Actor, query string) ([]*models.Creative, error) {
	return s.repo.ListByUser(ctx, actor.UserID, query)
}

// CreateCreative stores the asset file, if any, and the creative row.
func (s *CreativeService) CreateCreative(ctx context.Context, actor models.Actor, c *models.Creative, filename string, body []byte) (*models.Creative, error) {
	c.UserID = actor.UserID
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if len(body) > 0 {
		key := objectstore.NewKey(fmt.Sprintf("creatives/%d", actor.UserID), filename)
		start := time.Now()
		url, err := s.blobs.Put(ctx, key, body, "")
		s.metrics.RecordBlobOp("put", err, time.Since(start))
		if err != nil {
			return nil, fmt.Errorf("failed to store creative: %w", err)
		}
		c.ObjectKey = key
		c.FileURL = url
	}

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	if err := s.repo.Create(ctx, c); err != nil {
		if c.ObjectKey != "" {
			s.metrics.RecordCompensation("creative_create")
			if delErr := s.blobs.Delete(context.WithoutCancel(ctx), c.ObjectKey); delErr != nil {
				s.logger.Warn("Failed to delete creative blob", zap.String("key", c.ObjectKey), zap.Error(delErr))
			}
		}
		return nil, fmt.Errorf("failed to create creative: %w", err)
	}
	return c, nil
}

// LookupService serves the read-only targeting tables.
type LookupService struct {
	repo storage.LookupRepo
}

// NewLookupService constructs a new LookupService.
func NewLookupService(repo storage.LookupRepo) *LookupService {
	return &LookupService{repo: repo}
}

func (s *LookupService) Values(ctx context.Context, kind models.LookupKind) ([]models.LookupValue, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("lookup %q: %w", kind, models.ErrNotFound)
	}
	return s.repo.Values(ctx, kind)
}

func (s *LookupService) Locations(ctx context.Context) ([]models.Location, error) {
	return s.repo.Locations(ctx)
}

func (s *LookupService) TargetTypes(ctx context.Context, query string) ([]models.TargetType, error) {
	return s.repo.TargetTypes(ctx, query)
}
