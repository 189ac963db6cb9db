package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"straphub-service/models"
)

const (
	catalogVersionKey = "catalog:version"
	catalogProductKey = "catalog:v%d:product:%s"
	catalogListKey    = "catalog:v%d:list:%d:%s"
	DefaultCatalogTTL = 5 * time.Minute
)

// ProductCache caches gateway catalog reads. Keys embed a version number
// so Invalidate drops every entry with one INCR.
type ProductCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewProductCache(client *redis.Client, ttl time.Duration) *ProductCache {
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	return &ProductCache{redis: client, ttl: ttl}
}

func (pc *ProductCache) version(ctx context.Context) (int64, error) {
	v, err := pc.redis.Get(ctx, catalogVersionKey).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(v, 10, 64)
}

func (pc *ProductCache) get(ctx context.Context, key string, out any) (bool, error) {
	data, err := pc.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func (pc *ProductCache) set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return pc.redis.Set(ctx, key, data, pc.ttl).Err()
}

func listKey(version int64, limit int, query string) string {
	return fmt.Sprintf(catalogListKey, version, limit, strings.ToLower(strings.TrimSpace(query)))
}

// GetProductList returns a cached listing for (limit, query).
func (pc *ProductCache) GetProductList(ctx context.Context, limit int, query string) ([]models.Product, bool, error) {
	v, err := pc.version(ctx)
	if err != nil {
		return nil, false, err
	}
	var products []models.Product
	ok, err := pc.get(ctx, listKey(v, limit, query), &products)
	return products, ok, err
}

func (pc *ProductCache) SetProductList(ctx context.Context, limit int, query string, products []models.Product) error {
	v, err := pc.version(ctx)
	if err != nil {
		return err
	}
	return pc.set(ctx, listKey(v, limit, query), products)
}

// GetProduct returns a cached product by handle.
func (pc *ProductCache) GetProduct(ctx context.Context, handle string) (*models.Product, bool, error) {
	v, err := pc.version(ctx)
	if err != nil {
		return nil, false, err
	}
	var p models.Product
	ok, err := pc.get(ctx, fmt.Sprintf(catalogProductKey, v, handle), &p)
	if !ok || err != nil {
		return nil, false, err
	}
	return &p, true, nil
}

func (pc *ProductCache) SetProduct(ctx context.Context, p *models.Product) error {
	v, err := pc.version(ctx)
	if err != nil {
		return err
	}
	return pc.set(ctx, fmt.Sprintf(catalogProductKey, v, p.Handle), p)
}

// Invalidate bumps the catalog version; old entries age out by TTL.
func (pc *ProductCache) Invalidate(ctx context.Context) (int64, error) {
	v, err := pc.redis.Incr(ctx, catalogVersionKey).Result()
	if err != nil {
		return 0, fmt.Errorf("invalidate catalog cache: %w", err)
	}
	return v, nil
}
