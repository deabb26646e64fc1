// Package objectstore holds report artifacts and creative assets. The rest
// of the console sees it only as put/get/url/delete over opaque keys.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("object not found")

// Content types written by the console.
const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeCSV  = "text/csv"
)

// Store is a blob store.
type Store interface {
	// Put writes body under key and returns its public url.
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	URL(key string) string
	Delete(ctx context.Context, key string) error
}

// NewKey builds a collision-free key under prefix that keeps the original
// file extension, e.g. reports/7/3f0c...e1.xlsx.
func NewKey(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("%s/%s%s", strings.Trim(prefix, "/"), uuid.NewString(), ext)
}
