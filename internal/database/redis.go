package database

import (
	"context"
	"fmt"
	"time"

	"github.com/radiusdt/dsp-console/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisDB holds the client shared by the upload lock, the dashboard cache
// and the token denylist. All three are short single-key commands, so a
// small pool with tight timeouts is enough.
type RedisDB struct {
	Client *redis.Client
	logger *zap.Logger
}

func NewRedisDB(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*RedisDB, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   "dsp-console",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolSize:     20,
		MinIdleConns: 2,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}

	logger.Info("Connected to Redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return &RedisDB{Client: client, logger: logger}, nil
}

func (r *RedisDB) Close() error {
	if r.Client == nil {
		return nil
	}
	r.logger.Info("Redis client closed")
	return r.Client.Close()
}

func (r *RedisDB) Health(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}
