package dsp

import (
	"context"
	"errors"
	"testing"

	"github.com/radiusdt/dsp-console/internal/models"
	"github.com/radiusdt/dsp-console/internal/objectstore"
	"github.com/radiusdt/dsp-console/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type failingCreativeRepo struct {
	storage.CreativeRepo
}

func (failingCreativeRepo) Create(context.Context, *models.Creative) error {
	return errors.New("insert failed")
}

func TestCreateCreativeStoresAsset(t *testing.T) {
	ctx := context.Background()
	blobs := objectstore.NewMemoryStore("http://blobs.test")
	svc := NewCreativeService(storage.NewInMemoryCreativeRepo(), blobs, nil, nil)
	actor := models.Actor{UserID: 4}

	c, err := svc.CreateCreative(ctx, actor, &models.Creative{Name: "hero"}, "hero.png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), c.UserID)
	assert.Equal(t, models.CreativeBanner, c.CreativeType)
	assert.Contains(t, c.FileURL, "http://blobs.test/creatives/4/")
	assert.Len(t, blobs.Keys(), 1)

	_, err = svc.CreateCreative(ctx, models.Actor{UserID: 5}, &models.Creative{Name: "other"}, "", nil)
	require.NoError(t, err)

	own, err := svc.ListCreatives(ctx, actor, "")
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "hero", own[0].Name)
}

func TestCreateCreativeValidation(t *testing.T) {
	svc := NewCreativeService(storage.NewInMemoryCreativeRepo(), objectstore.NewMemoryStore(""), nil, nil)

	_, err := svc.CreateCreative(context.Background(), models.Actor{UserID: 1}, &models.Creative{}, "", nil)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.CreateCreative(context.Background(), models.Actor{UserID: 1},
		&models.Creative{Name: "x", CreativeType: "hologram"}, "", nil)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestCreateCreativeDeletesBlobWhenInsertFails(t *testing.T) {
	blobs := new(MockBlobStore)
	blobs.On("Put", mock.Anything, mock.Anything, []byte("mp4"), "").Return("http://blobs.test/k", nil)
	blobs.On("Delete", mock.Anything, mock.MatchedBy(func(key string) bool {
		return len(key) > len("creatives/1/")
	})).Return(nil)

	svc := NewCreativeService(failingCreativeRepo{}, blobs, nil, nil)
	_, err := svc.CreateCreative(context.Background(), models.Actor{UserID: 1},
		&models.Creative{Name: "clip", CreativeType: models.CreativeVideo}, "clip.mp4", []byte("mp4"))
	require.Error(t, err)
	blobs.AssertExpectations(t)
}

func TestLookupService(t *testing.T) {
	ctx := context.Background()
	svc := NewLookupService(storage.NewInMemoryLookupRepo())

	values, err := svc.Values(ctx, models.LookupDevice)
	require.NoError(t, err)
	assert.NotEmpty(t, values)

	_, err = svc.Values(ctx, "zodiac")
	assert.ErrorIs(t, err, models.ErrNotFound)

	all, err := svc.TargetTypes(ctx, "")
	require.NoError(t, err)
	some, err := svc.TargetTypes(ctx, "zzzz-no-match")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(some), len(all))
	assert.Empty(t, some)
}
