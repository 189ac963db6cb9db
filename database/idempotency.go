package database

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore remembers the checkout URL issued for a client-supplied
// Idempotency-Key so a retried request gets the same session.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl}
}

func (s *IdempotencyStore) key(sessionID, key string) string {
	return "idem:checkout:" + sessionID + ":" + key
}

// Get returns the stored URL, or "" when the key is unknown.
func (s *IdempotencyStore) Get(ctx context.Context, sessionID, key string) (string, error) {
	val, err := s.client.Get(ctx, s.key(sessionID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

func (s *IdempotencyStore) Set(ctx context.Context, sessionID, key, checkoutURL string) error {
	return s.client.Set(ctx, s.key(sessionID, key), checkoutURL, s.ttl).Err()
}
