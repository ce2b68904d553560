// Package lock implements a redis-backed lock used to extend the
// per-trip critical section across service instances.  The lock is a
// SETNX key holding a random token; release compares the token and
// deletes atomically via a Lua script so one instance can never free a
// lock another instance owns.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/bus-seat-reservation/internal/booking"
	"github.com/iliyamo/bus-seat-reservation/internal/pkg/logger"
)

// ErrNotAcquired is returned when the lock is held by someone else for
// the whole retry budget.
var ErrNotAcquired = errors.New("trip lock not acquired")

var releaseScript = redis.NewScript(`
if redis.call('get', KEYS[1]) == ARGV[1] then
  return redis.call('del', KEYS[1])
else
  return 0
end
`)

// RedisTripLocker implements booking.TripLocker on a redis client.
type RedisTripLocker struct {
	client     *redis.Client
	maxRetries int
	retryDelay time.Duration
}

// NewRedisTripLocker returns a locker with a short retry budget: the
// critical sections it guards are a handful of store round-trips, so
// contention clears quickly.
func NewRedisTripLocker(client *redis.Client) *RedisTripLocker {
	return &RedisTripLocker{client: client, maxRetries: 5, retryDelay: 50 * time.Millisecond}
}

// Acquire takes the trip's lock, retrying briefly.  It returns
// booking.ErrTripBusy when the budget is exhausted so callers surface a
// retryable condition instead of a conflict.
func (l *RedisTripLocker) Acquire(ctx context.Context, tripID uint64, ttl time.Duration) (func(context.Context), error) {
	key := fmt.Sprintf("trip_lock:%d", tripID)
	token := uuid.NewString()

	for attempt := 0; attempt <= l.maxRetries; attempt++ {
		ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			release := func(ctx context.Context) {
				if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
					logger.Warn("trip lock release failed",
						zap.Uint64("trip_id", tripID), zap.Error(err))
				}
			}
			return release, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryDelay):
		}
	}
	return nil, fmt.Errorf("%w: %v", booking.ErrTripBusy, ErrNotAcquired)
}
