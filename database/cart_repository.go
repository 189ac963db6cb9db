package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"straphub-service/models"
)

var (
	// ErrSnapshotNotFound is returned when a session has no saved cart.
	ErrSnapshotNotFound = errors.New("cart snapshot not found")
	// ErrSnapshotUnreadable is returned for payloads that fail to decode or
	// carry an unknown schema version.
	ErrSnapshotUnreadable = errors.New("cart snapshot unreadable")
)

// CartRepository stores cart snapshots in Redis as JSON, one key per
// session. Every save refreshes the TTL.
type CartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCartRepository(client *redis.Client, ttl time.Duration) *CartRepository {
	return &CartRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *CartRepository) getKey(sessionID string) string {
	return fmt.Sprintf("cart:session:%s", sessionID)
}

func (r *CartRepository) Save(ctx context.Context, sessionID string, snap models.CartSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.getKey(sessionID), data, r.ttl).Err()
}

func (r *CartRepository) Load(ctx context.Context, sessionID string) (*models.CartSnapshot, error) {
	data, err := r.client.Get(ctx, r.getKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeSnapshot(data)
}

func (r *CartRepository) Delete(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, r.getKey(sessionID)).Err()
}

func decodeSnapshot(data []byte) (*models.CartSnapshot, error) {
	var snap models.CartSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotUnreadable, err)
	}
	if snap.SchemaVersion != models.SnapshotSchemaVersion {
		return nil, fmt.Errorf("%w: schema version %d", ErrSnapshotUnreadable, snap.SchemaVersion)
	}
	return &snap, nil
}
