package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"straphub-service/models"
)

func TestProductCache_ProductHitAndInvalidate(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewProductCache(client, time.Minute)
	ctx := context.Background()

	_, ok, err := cache.GetProduct(ctx, "sport-band")
	require.NoError(t, err)
	assert.False(t, ok)

	p := &models.Product{ID: "p1", Handle: "sport-band", Title: "Sport Band"}
	require.NoError(t, cache.SetProduct(ctx, p))

	got, ok, err := cache.GetProduct(ctx, "sport-band")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Sport Band", got.Title)

	v, err := cache.Invalidate(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)

	_, ok, err = cache.GetProduct(ctx, "sport-band")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProductCache_ListKeyedByQuery(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewProductCache(client, time.Minute)
	ctx := context.Background()

	products := []models.Product{{ID: "p1", Handle: "leather-strap"}}
	require.NoError(t, cache.SetProductList(ctx, 20, "Leather ", products))

	got, ok, err := cache.GetProductList(ctx, 20, "leather")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, products, got)

	_, ok, err = cache.GetProductList(ctx, 20, "silicone")
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(2 * time.Minute)
	_, ok, err = cache.GetProductList(ctx, 20, "leather")
	require.NoError(t, err)
	assert.False(t, ok)
}
