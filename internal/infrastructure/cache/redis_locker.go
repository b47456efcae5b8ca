package cache

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const lockKeyPrefix = "retail:lock:"

// RedisLocker is a cross-process Locker backed by redislock. The lock TTL
// bounds how long a crashed holder can block others.
type RedisLocker struct {
	client     *redislock.Client
	ttl        time.Duration
	retryEvery time.Duration
	logger     *zap.Logger
}

// NewRedisLocker creates a locker on an existing redis client
func NewRedisLocker(rdb redis.UniversalClient, ttl, retryEvery time.Duration, logger *zap.Logger) *RedisLocker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{
		client:     redislock.New(rdb),
		ttl:        ttl,
		retryEvery: retryEvery,
		logger:     logger,
	}
}

// Lock obtains key, retrying linearly until ctx is done
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lock, err := l.client.Obtain(ctx, lockKeyPrefix+key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(l.retryEvery),
	})
	if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
		return nil, shared.NewDomainErrorf(shared.CodeTimeout, "lock %s not obtained", key)
	}
	if err != nil {
		return nil, err
	}

	return func() {
		// release must outlive a cancelled request context
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("release redis lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

var _ shared.Locker = (*RedisLocker)(nil)
