package dsp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DashboardCache stores rendered reducer results. Invalidate drops every
// entry at once; it is called after any campaign write.
type DashboardCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
	Invalidate(ctx context.Context)
}

const dashboardGenKey = "dsp:dashboard:gen"

// RedisDashboardCache namespaces entries under a generation counter, so
// invalidation is a single INCR and stale entries age out by TTL.
type RedisDashboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDashboardCache(client *redis.Client, ttl time.Duration) *RedisDashboardCache {
	return &RedisDashboardCache{client: client, ttl: ttl}
}

func (c *RedisDashboardCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, dashboardGenKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *RedisDashboardCache) key(ctx context.Context, key string) (string, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("dsp:dashboard:%d:%s", gen, key), nil
}

func (c *RedisDashboardCache) Get(ctx context.Context, key string) ([]byte, bool) {
	full, err := c.key(ctx, key)
	if err != nil {
		return nil, false
	}
	b, err := c.client.Get(ctx, full).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

func (c *RedisDashboardCache) Set(ctx context.Context, key string, value []byte) {
	full, err := c.key(ctx, key)
	if err != nil {
		return
	}
	c.client.Set(ctx, full, value, c.ttl)
}

func (c *RedisDashboardCache) Invalidate(ctx context.Context) {
	c.client.Incr(ctx, dashboardGenKey)
}

// InMemoryDashboardCache is a TTL map for single-process runs.
type InMemoryDashboardCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

func NewInMemoryDashboardCache(ttl time.Duration) *InMemoryDashboardCache {
	return &InMemoryDashboardCache{ttl: ttl, entries: make(map[string]cacheEntry)}
}

func (c *InMemoryDashboardCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (c *InMemoryDashboardCache) Set(_ context.Context, key string, value []byte) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *InMemoryDashboardCache) Invalidate(context.Context) {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// noCache disables caching.
type noCache struct{}

func (noCache) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (noCache) Set(context.Context, string, []byte)        {}
func (noCache) Invalidate(context.Context)                 {}
