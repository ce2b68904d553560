package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// eventKeyTTL is how long processed webhook event IDs are remembered.
// Providers retry deliveries for at most a day.
const eventKeyTTL = 24 * time.Hour

// IdempotencyStore remembers processed webhook events so provider
// retries never confirm a hold twice.  Backed by redis SETNX; when no
// redis client is configured every event is treated as new.
type IdempotencyStore struct {
	client *redis.Client
}

// NewIdempotencyStore returns a store on the given client (may be nil).
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

// MarkProcessed records the event and reports whether this call was the
// first to do so.  False means the event was already handled.
func (s *IdempotencyStore) MarkProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	if s.client == nil {
		return true, nil
	}
	key := fmt.Sprintf("payment_webhook:%s:%s", provider, eventID)
	return s.client.SetNX(ctx, key, "1", eventKeyTTL).Result()
}
