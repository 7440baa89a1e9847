// Package lock implements core/lock.Locker on Redis with bsm/redislock.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"orderledger/internal/core/apperror"
	corelock "orderledger/internal/core/lock"
)

// Defaults for waiting on a held lock.
const (
	DefaultRetryInterval = 50 * time.Millisecond
	DefaultMaxRetries    = 100
)

// RedisLocker obtains locks from Redis. Waiting holders retry with a linear
// backoff until the retry budget or ctx runs out.
type RedisLocker struct {
	client        *redislock.Client
	retryInterval time.Duration
	maxRetries    int
}

var _ corelock.Locker = (*RedisLocker)(nil)

// NewRedisLocker creates a locker on rdb.
func NewRedisLocker(rdb redis.UniversalClient) *RedisLocker {
	return &RedisLocker{
		client:        redislock.New(rdb),
		retryInterval: DefaultRetryInterval,
		maxRetries:    DefaultMaxRetries,
	}
}

// Obtain implements corelock.Locker.
func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (corelock.Lease, error) {
	lk, err := l.client.Obtain(ctx, key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.retryInterval), l.maxRetries),
	})
	if err != nil {
		return nil, mapObtainError(key, err)
	}
	return lk, nil
}

func mapObtainError(key string, err error) error {
	if errors.Is(err, redislock.ErrNotObtained) {
		return apperror.NewLockNotObtained(key)
	}
	return fmt.Errorf("obtain lock %s: %w", key, err)
}
