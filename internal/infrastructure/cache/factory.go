// Package cache provides per-owner locks and idempotency stores, either
// in-process or shared through Redis.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/erp/retailcore/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Backends bundles the lock and idempotency implementations chosen by configuration
type Backends struct {
	Locker      shared.Locker
	Idempotency shared.IdempotencyStore
	redis       *redis.Client
}

// NewBackends builds local or redis-backed implementations per cfg.Lock.Backend
func NewBackends(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Backends, error) {
	if cfg.Lock.Backend != "redis" {
		return &Backends{
			Locker:      NewLocalLocker(),
			Idempotency: NewInMemoryIdempotencyStore(5 * time.Minute),
		}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr(), err)
	}
	logger.Info("redis lock backend ready", zap.String("addr", cfg.Redis.Addr()))

	return &Backends{
		Locker:      NewRedisLocker(rdb, cfg.Lock.TTL, cfg.Lock.RetryEvery, logger),
		Idempotency: NewRedisIdempotencyStore(rdb, ""),
		redis:       rdb,
	}, nil
}

// Ping checks the redis connection; the local backends are always reachable
func (b *Backends) Ping(ctx context.Context) error {
	if b.redis == nil {
		return nil
	}
	return b.redis.Ping(ctx).Err()
}

// Close releases the idempotency store and the redis client, if any
func (b *Backends) Close() error {
	if err := b.Idempotency.Close(); err != nil {
		return err
	}
	if b.redis != nil {
		return b.redis.Close()
	}
	return nil
}
