package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/radiusdt/dsp-console/internal/models"
)

// InMemoryCreativeRepo stores creative metadata in memory. The asset bytes
// live in the object store.
type InMemoryCreativeRepo struct {
	mu        sync.RWMutex
	nextID    int64
	creatives map[int64]*models.Creative
}

// NewInMemoryCreativeRepo constructs an empty creative repository.
func NewInMemoryCreativeRepo() *InMemoryCreativeRepo {
	return &InMemoryCreativeRepo{creatives: make(map[int64]*models.Creative)}
}

func (r *InMemoryCreativeRepo) Create(_ context.Context, c *models.Creative) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c.ID = r.nextID
	cp := *c
	r.creatives[c.ID] = &cp
	return nil
}

// ListByUser returns the user's creatives, newest first, optionally
// filtered by a case-insensitive name match.
func (r *InMemoryCreativeRepo) ListByUser(_ context.Context, userID int64, query string) ([]*models.Creative, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	query = strings.ToLower(strings.TrimSpace(query))
	res := make([]*models.Creative, 0)
	for _, c := range r.creatives {
		if c.UserID != userID {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(c.Name), query) {
			continue
		}
		cp := *c
		res = append(res, &cp)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID > res[j].ID })
	return res, nil
}
