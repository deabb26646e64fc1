package dsp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/radiusdt/dsp-console/internal/metrics"
	"github.com/radiusdt/dsp-console/internal/models"
	"github.com/radiusdt/dsp-console/internal/objectstore"
	"github.com/radiusdt/dsp-console/internal/sheet"
	"github.com/radiusdt/dsp-console/internal/storage"
	"go.uber.org/zap"
)

// ReportDeps wires a ReportService. Ledger, Lock and Cache are optional.
type ReportDeps struct {
	Campaigns storage.CampaignRepo
	Files     storage.FileRepo
	Reports   storage.ReportStore
	Blobs     objectstore.Store
	Parser    *sheet.Parser
	Ledger    storage.PerformanceLedger
	Lock      UploadLock
	Cache     DashboardCache
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// ReportService runs the performance upload pipeline and serves the
// per-campaign report artifacts.
type ReportService struct {
	campaigns storage.CampaignRepo
	files     storage.FileRepo
	reports   storage.ReportStore
	blobs     objectstore.Store
	parser    *sheet.Parser
	ledger    storage.PerformanceLedger
	lock      UploadLock
	cache     DashboardCache
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewReportService(d ReportDeps) *ReportService {
	s := &ReportService{
		campaigns: d.Campaigns,
		files:     d.Files,
		reports:   d.Reports,
		blobs:     d.Blobs,
		parser:    d.Parser,
		ledger:    d.Ledger,
		lock:      d.Lock,
		cache:     d.Cache,
		metrics:   d.Metrics,
		logger:    d.Logger,
	}
	if s.parser == nil {
		s.parser = sheet.NewParser(nil)
	}
	if s.ledger == nil {
		s.ledger = storage.NewInMemoryLedger()
	}
	if s.lock == nil {
		s.lock = NewInMemoryUploadLock()
	}
	if s.cache == nil {
		s.cache = noCache{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

func reportPrefix(campaignID int64) string {
	return fmt.Sprintf("reports/%d", campaignID)
}

func contentTypeFor(filename string) string {
	if strings.EqualFold(path.Ext(filename), ".csv") {
		return objectstore.ContentTypeCSV
	}
	return objectstore.ContentTypeXLSX
}

// Upload ingests a performance sheet for one campaign. The sheet's rows
// replace the campaign's counters and the sheet becomes its report
// artifact; both land in one store transaction. Uploads for the same
// campaign are serialised and a concurrent one fails with ErrConflict.
func (s *ReportService) Upload(ctx context.Context, actor models.Actor, campaignID int64, filename string, body []byte) (*models.UploadResult, error) {
	start := time.Now()
	result, err := s.upload(ctx, actor, campaignID, filename, body)
	switch {
	case err == nil:
		s.metrics.RecordUpload("accepted", result.RowsProcessed, time.Since(start))
	case errors.Is(err, models.ErrInvalidFormat), errors.Is(err, models.ErrValidation):
		s.metrics.RecordUpload("invalid", 0, time.Since(start))
	case errors.Is(err, models.ErrConflict):
		s.metrics.RecordUpload("conflict", 0, time.Since(start))
	default:
		s.metrics.RecordUpload("error", 0, time.Since(start))
	}
	return result, err
}

func (s *ReportService) upload(ctx context.Context, actor models.Actor, campaignID int64, filename string, body []byte) (*models.UploadResult, error) {
	if len(body) == 0 {
		return nil, models.NewValidationError("file", "no file uploaded")
	}

	c, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, c); err != nil {
		return nil, err
	}

	release, err := s.lock.Acquire(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	defer release()

	parsed, err := s.parser.Parse(bytes.NewReader(body), filename, campaignID)
	if err != nil {
		return nil, err
	}
	totals, err := Aggregate(parsed.Rows)
	if err != nil {
		return nil, err
	}

	key := objectstore.NewKey(reportPrefix(campaignID), filename)
	url, err := s.putBlob(ctx, key, body, contentTypeFor(filename))
	if err != nil {
		return nil, err
	}

	previous, err := s.reports.ApplyUpload(ctx, campaignID, totals, &models.CampaignFile{
		CampaignID: campaignID,
		ObjectKey:  key,
		URL:        url,
	})
	if err != nil {
		s.discardBlob(key, "upload")
		return nil, fmt.Errorf("failed to apply upload: %w", err)
	}
	if previous != "" && previous != key {
		s.deleteBlob(ctx, previous)
	}

	uploadID := uuid.NewString()
	if err := s.ledger.Append(ctx, uploadID, parsed.Rows); err != nil {
		s.metrics.RecordLedgerError()
		s.logger.Warn("Failed to append upload to ledger",
			zap.String("upload_id", uploadID),
			zap.Int64("campaign_id", campaignID),
			zap.Error(err),
		)
	}
	s.cache.Invalidate(ctx)

	s.logger.Info("Performance upload applied",
		zap.Int64("campaign_id", campaignID),
		zap.String("upload_id", uploadID),
		zap.Int("rows", parsed.Processed),
		zap.Int64("impressions", totals.Impressions),
		zap.String("spend", totals.Spend.StringFixed(2)),
	)

	return &models.UploadResult{
		CampaignID:    campaignID,
		RowsProcessed: parsed.Processed,
		Totals:        totals,
		FileURL:       url,
	}, nil
}

// Report returns the artifact of one campaign, generating it on first use.
func (s *ReportService) Report(ctx context.Context, actor models.Actor, campaignID int64) (*models.ReportLink, error) {
	c, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, c); err != nil {
		return nil, err
	}
	return s.ensureArtifact(ctx, c)
}

// Reports returns an artifact link for every campaign the actor can see.
func (s *ReportService) Reports(ctx context.Context, actor models.Actor) ([]models.ReportLink, error) {
	campaigns, err := s.campaigns.ListVisible(ctx, storage.VisibilityFor(actor))
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	links := make([]models.ReportLink, 0, len(campaigns))
	for _, c := range campaigns {
		link, err := s.ensureArtifact(ctx, c)
		if err != nil {
			return nil, err
		}
		links = append(links, *link)
	}
	return links, nil
}

// History lists accepted uploads for a campaign, newest first.
func (s *ReportService) History(ctx context.Context, actor models.Actor, campaignID int64, limit int) ([]storage.LedgerUpload, error) {
	c, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, c); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	history, err := s.ledger.History(ctx, campaignID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload history: %w", err)
	}
	return history, nil
}

func (s *ReportService) ensureArtifact(ctx context.Context, c *models.Campaign) (*models.ReportLink, error) {
	f, err := s.files.GetFile(ctx, c.ID)
	if err == nil {
		return &models.ReportLink{CampaignID: c.ID, FileURL: f.URL, Status: models.ReportExists}, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to load report artifact: %w", err)
	}
	f, created, err := s.CreateArtifact(ctx, c)
	if err != nil {
		return nil, err
	}
	status := models.ReportCreated
	if !created {
		status = models.ReportExists
	}
	return &models.ReportLink{CampaignID: c.ID, FileURL: f.URL, Status: status}, nil
}

// CreateArtifact exports c to a workbook, stores it and records it as the
// campaign's artifact unless one is already on record, e.g. from an upload
// that committed meanwhile. It returns the artifact on record and whether
// the export became it. A blob that was not recorded is removed.
func (s *ReportService) CreateArtifact(ctx context.Context, c *models.Campaign) (*models.CampaignFile, bool, error) {
	buf, err := sheet.Export(c.Projection())
	if err != nil {
		return nil, false, fmt.Errorf("failed to export campaign %d: %w", c.ID, err)
	}

	key := objectstore.NewKey(reportPrefix(c.ID), fmt.Sprintf("campaign-%d.xlsx", c.ID))
	url, err := s.putBlob(ctx, key, buf.Bytes(), objectstore.ContentTypeXLSX)
	if err != nil {
		return nil, false, err
	}

	stored, inserted, err := s.files.InsertFile(ctx, &models.CampaignFile{CampaignID: c.ID, ObjectKey: key, URL: url})
	if err != nil {
		s.discardBlob(key, "artifact")
		return nil, false, fmt.Errorf("failed to save report artifact: %w", err)
	}
	if !inserted {
		s.deleteBlob(ctx, key)
	}
	return stored, inserted, nil
}

// RemoveArtifact deletes the blob behind a campaign's artifact. The row
// itself goes with the campaign.
func (s *ReportService) RemoveArtifact(ctx context.Context, f *models.CampaignFile) {
	if f != nil && f.ObjectKey != "" {
		s.deleteBlob(ctx, f.ObjectKey)
	}
}

func (s *ReportService) putBlob(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	start := time.Now()
	url, err := s.blobs.Put(ctx, key, body, contentType)
	s.metrics.RecordBlobOp("put", err, time.Since(start))
	if err != nil {
		return "", fmt.Errorf("failed to store %s: %w", key, err)
	}
	return url, nil
}

func (s *ReportService) deleteBlob(ctx context.Context, key string) {
	start := time.Now()
	err := s.blobs.Delete(ctx, key)
	s.metrics.RecordBlobOp("delete", err, time.Since(start))
	if err != nil {
		s.logger.Warn("Failed to delete blob", zap.String("key", key), zap.Error(err))
	}
}

// discardBlob compensates for a blob whose database write failed. It runs
// detached from the request context, which may already be cancelled.
func (s *ReportService) discardBlob(key, op string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.metrics.RecordCompensation(op)
	s.deleteBlob(ctx, key)
}

// authorize applies the visibility rule to a single campaign.
func authorize(actor models.Actor, c *models.Campaign) error {
	if !storage.VisibilityFor(actor).Allows(c) {
		return fmt.Errorf("campaign %d: %w", c.ID, models.ErrForbidden)
	}
	return nil
}
