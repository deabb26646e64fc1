package objectstore

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorePutGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore("http://localhost:8080/files/")

	url, err := store.Put(ctx, "reports/7/a.xlsx", []byte("data"), ContentTypeXLSX)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/reports/7/a.xlsx", url)

	body, err := store.Get(ctx, "reports/7/a.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), body)

	require.NoError(t, store.Delete(ctx, "reports/7/a.xlsx"))
	_, err = store.Get(ctx, "reports/7/a.xlsx")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewKeyKeepsExtension(t *testing.T) {
	a := NewKey("/reports/7/", "Performance.XLSX")
	b := NewKey("reports/7", "performance.xlsx")

	assert.True(t, strings.HasPrefix(a, "reports/7/"))
	assert.True(t, strings.HasSuffix(a, ".xlsx"))
	assert.NotEqual(t, a, b)
}
