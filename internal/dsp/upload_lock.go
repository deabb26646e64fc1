package dsp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/radiusdt/dsp-console/internal/models"
	"github.com/redis/go-redis/v9"
)

// UploadLock serialises report uploads per campaign. Acquire fails fast
// with models.ErrConflict when another upload holds the campaign.
type UploadLock interface {
	Acquire(ctx context.Context, campaignID int64) (release func(), err error)
}

// RedisUploadLock holds the lock as a Redis key with a TTL so a crashed
// holder cannot wedge a campaign.
type RedisUploadLock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisUploadLock(client *redis.Client, ttl time.Duration) *RedisUploadLock {
	return &RedisUploadLock{client: client, ttl: ttl}
}

// releaseScript deletes the key only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func uploadLockKey(campaignID int64) string {
	return fmt.Sprintf("dsp:upload:lock:%d", campaignID)
}

func (l *RedisUploadLock) Acquire(ctx context.Context, campaignID int64) (func(), error) {
	key := uploadLockKey(campaignID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire upload lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("upload already in progress for campaign %d: %w", campaignID, models.ErrConflict)
	}

	return func() {
		// Release must run even when the request context is gone.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.client, []string{key}, token).Err()
	}, nil
}

// InMemoryUploadLock is the single-process fallback.
type InMemoryUploadLock struct {
	mu   sync.Mutex
	held map[int64]struct{}
}

func NewInMemoryUploadLock() *InMemoryUploadLock {
	return &InMemoryUploadLock{held: make(map[int64]struct{})}
}

func (l *InMemoryUploadLock) Acquire(_ context.Context, campaignID int64) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[campaignID]; busy {
		return nil, fmt.Errorf("upload already in progress for campaign %d: %w", campaignID, models.ErrConflict)
	}
	l.held[campaignID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, campaignID)
			l.mu.Unlock()
		})
	}, nil
}
