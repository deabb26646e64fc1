package dsp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/radiusdt/dsp-console/internal/models"
	"github.com/radiusdt/dsp-console/internal/objectstore"
	"github.com/radiusdt/dsp-console/internal/storage"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockBlobStore is a mock implementation of objectstore.Store
type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	args := m.Called(ctx, key, body, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockBlobStore) URL(key string) string {
	return m.Called(key).String(0)
}

func (m *MockBlobStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

var _ objectstore.Store = (*MockBlobStore)(nil)

// failingReportStore aborts every upload transaction.
type failingReportStore struct{}

func (failingReportStore) ApplyUpload(context.Context, int64, models.Totals, *models.CampaignFile) (string, error) {
	return "", errors.New("transaction aborted")
}

type fixture struct {
	users     *storage.InMemoryUserRepo
	repo      *storage.InMemoryCampaignRepo
	blobs     *objectstore.MemoryStore
	ledger    *storage.InMemoryLedger
	lock      *InMemoryUploadLock
	cache     *InMemoryDashboardCache
	reports   *ReportService
	campaigns *CampaignService
	dashboard *DashboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:  storage.NewInMemoryUserRepo(),
		blobs:  objectstore.NewMemoryStore("http://blobs.test"),
		ledger: storage.NewInMemoryLedger(),
		lock:   NewInMemoryUploadLock(),
		cache:  NewInMemoryDashboardCache(time.Minute),
	}
	f.repo = storage.NewInMemoryCampaignRepo(f.users)
	f.reports = NewReportService(ReportDeps{
		Campaigns: f.repo,
		Files:     f.repo,
		Reports:   f.repo,
		Blobs:     f.blobs,
		Ledger:    f.ledger,
		Lock:      f.lock,
		Cache:     f.cache,
	})
	f.campaigns = NewCampaignService(f.repo, f.repo, f.reports, f.cache, nil, nil)
	f.dashboard = NewDashboardService(f.repo, f.cache, 180, nil, nil)
	return f
}

// seed stores a campaign directly, bypassing the services.
func (f *fixture) seed(t *testing.T, c *models.Campaign) *models.Campaign {
	t.Helper()
	if c.Status == "" {
		c.Status = models.StatusCreated
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	c.UpdatedAt = c.CreatedAt
	require.NoError(t, f.repo.Create(context.Background(), c))
	return c
}

func ownedBy(id int64) *int64 { return &id }
