package dsp

import (
	"context"
	"errors"
	"testing"

	"github.com/radiusdt/dsp-console/internal/models"
	"github.com/radiusdt/dsp-console/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCreateCampaignWritesArtifact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := models.Actor{UserID: 4}

	c, err := f.campaigns.CreateCampaign(ctx, owner, models.CampaignInput{Name: strPtr("  Diwali  ")})
	require.NoError(t, err)

	assert.Equal(t, "Diwali", c.Name)
	assert.Equal(t, models.StatusCreated, c.Status)
	assert.True(t, c.OwnedBy(4))
	assert.NotEmpty(t, c.FileURL)
	assert.Len(t, f.blobs.Keys(), 1)

	link, err := f.reports.Report(ctx, owner, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportExists, link.Status)
}

func TestCreateCampaignValidates(t *testing.T) {
	f := newFixture(t)
	_, err := f.campaigns.CreateCampaign(context.Background(), models.Actor{UserID: 1}, models.CampaignInput{})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestCreateCampaignCompensatesWhenArtifactFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	blobs := new(MockBlobStore)
	blobs.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("bucket unavailable"))
	reports := NewReportService(ReportDeps{Campaigns: f.repo, Files: f.repo, Reports: f.repo, Blobs: blobs})
	svc := NewCampaignService(f.repo, f.repo, reports, nil, nil, nil)

	_, err := svc.CreateCampaign(ctx, models.Actor{UserID: 1}, models.CampaignInput{Name: strPtr("doomed")})
	require.Error(t, err)

	left, err := f.repo.ListVisible(ctx, storage.AllCampaigns())
	require.NoError(t, err)
	assert.Empty(t, left)
	blobs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestUpdateCampaignChecksOwnerAndKeepsCounters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.seed(t, &models.Campaign{UserID: ownedBy(1), Name: "a", Impressions: 500})

	_, err := f.campaigns.UpdateCampaign(ctx, models.Actor{UserID: 2}, c.ID, models.CampaignInput{Name: strPtr("stolen")})
	assert.ErrorIs(t, err, models.ErrForbidden)

	live := models.StatusLive
	updated, err := f.campaigns.UpdateCampaign(ctx, models.Actor{UserID: 1}, c.ID, models.CampaignInput{Status: &live})
	require.NoError(t, err)
	assert.Equal(t, models.StatusLive, updated.Status)
	assert.Equal(t, "a", updated.Name)
	assert.Equal(t, int64(500), updated.Impressions)

	bad := models.Status("Paused")
	_, err = f.campaigns.UpdateCampaign(ctx, models.Actor{UserID: 1}, c.ID, models.CampaignInput{Status: &bad})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestDeleteCampaignRemovesArtifactBlob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := models.Actor{UserID: 1}
	c, err := f.campaigns.CreateCampaign(ctx, owner, models.CampaignInput{Name: strPtr("gone")})
	require.NoError(t, err)
	require.Len(t, f.blobs.Keys(), 1)

	assert.ErrorIs(t, f.campaigns.DeleteCampaign(ctx, models.Actor{UserID: 2}, c.ID), models.ErrForbidden)
	require.NoError(t, f.campaigns.DeleteCampaign(ctx, owner, c.ID))

	assert.Empty(t, f.blobs.Keys())
	_, err = f.repo.GetFile(ctx, c.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = f.campaigns.GetCampaign(ctx, owner, c.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListCampaignsPaging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		f.seed(t, &models.Campaign{UserID: ownedBy(1), Name: "summer"})
	}
	f.seed(t, &models.Campaign{UserID: ownedBy(2), Name: "winter"})

	page, err := f.campaigns.ListCampaigns(ctx, models.Actor{UserID: 1}, "", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 12, page.Count)
	assert.Equal(t, 1, page.Page)
	assert.Len(t, page.Results, defaultPageSize)

	page, err = f.campaigns.ListCampaigns(ctx, models.Actor{UserID: 1}, "", 2, 10)
	require.NoError(t, err)
	assert.Len(t, page.Results, 2)

	page, err = f.campaigns.ListCampaigns(ctx, models.Actor{UserID: 9, Manager: true}, " winter , nothing", 1, 500)
	require.NoError(t, err)
	assert.Equal(t, maxPageSize, page.PageSize)
	assert.Equal(t, 1, page.Count)
	assert.Equal(t, "winter", page.Results[0].Name)
}
