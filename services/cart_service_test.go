package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"straphub-service/database"
	"straphub-service/models"
)

func newTestCartService(store SnapshotStore, gw CheckoutGateway, events EventPublisher) *CartService {
	return NewCartService(store, gw, events, nil, nil, CartServiceConfig{
		Options: testOptions(),
		IdleTTL: time.Minute,
	})
}

func TestCartService_RehydratesFromStore(t *testing.T) {
	store := newFakeStore()
	store.snaps["s1"] = models.CartSnapshot{
		SchemaVersion: models.SnapshotSchemaVersion,
		SessionID:     "s1",
		Items:         []models.LineItem{gbpItem("A", "10.00", 2)},
	}
	svc := newTestCartService(store, nil, nil)

	cart := svc.Cart(context.Background(), "s1")
	assert.Equal(t, 2, cart.TotalItemCount())
	assert.Same(t, cart, svc.Cart(context.Background(), "s1"))
	assert.Equal(t, 1, store.loads)
}

func TestCartService_ConcurrentFirstUseLoadsOnce(t *testing.T) {
	store := newFakeStore()
	svc := newTestCartService(store, nil, nil)

	var wg sync.WaitGroup
	carts := make([]*CartState, 20)
	for i := range carts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			carts[i] = svc.Cart(context.Background(), "s1")
		}(i)
	}
	wg.Wait()

	for _, c := range carts {
		assert.Same(t, carts[0], c)
	}
	assert.Equal(t, 1, store.loads)
}

func TestCartService_UnreadableSnapshotIsEmpty(t *testing.T) {
	store := newFakeStore()
	store.loadErr = database.ErrSnapshotUnreadable
	svc := newTestCartService(store, nil, nil)

	cart := svc.Cart(context.Background(), "s1")
	assert.Empty(t, cart.Items())
	assert.Equal(t, 1, svc.Sessions())
}

func TestCartService_UnavailableStoreIsRetried(t *testing.T) {
	store := newFakeStore()
	store.loadErr = errBoom
	svc := newTestCartService(store, nil, nil)

	assert.Empty(t, svc.Cart(context.Background(), "s1").Items())
	assert.Equal(t, 0, svc.Sessions())

	store.loadErr = nil
	svc.Cart(context.Background(), "s1")
	assert.Equal(t, 2, store.loads)
	assert.Equal(t, 1, svc.Sessions())
}

func TestCartService_AddVariant(t *testing.T) {
	svc := newTestCartService(newFakeStore(), nil, nil)
	product := &models.Product{
		ID:     "p1",
		Title:  "Sport Band",
		Handle: "sport-band",
		Variants: []models.Variant{{
			ID:    "v1",
			Title: "Black",
			Price: models.Money{Amount: "10.00", CurrencyCode: "GBP"},
		}},
	}

	cart, err := svc.AddVariant(context.Background(), "s1", product, "v1", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.TotalItemCount())
	assert.Equal(t, models.PlaceholderImage, cart.Items()[0].DisplayImage)

	_, err = svc.AddVariant(context.Background(), "s1", product, "missing", 1)
	assert.ErrorIs(t, err, ErrVariantNotFound)
}

func TestCartService_CheckoutPublishesEvent(t *testing.T) {
	gw := newFakeGateway("https://pay.example/session/123")
	events := &fakeEvents{}
	svc := newTestCartService(newFakeStore(), gw, events)
	ctx := context.Background()
	svc.Cart(ctx, "s1").AddItem(ctx, gbpItem("A", "10.00", 3))

	url, err := svc.Checkout(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/session/123?channel=online_store", url)

	require.Len(t, events.events, 1)
	ev := events.events[0]
	assert.Equal(t, CheckoutEventName, ev.Event)
	assert.Equal(t, "s1", ev.SessionID)
	assert.Equal(t, url, ev.CheckoutURL)
	assert.Equal(t, []models.CheckoutLine{{VariantID: "A", Quantity: 3}}, ev.Lines)
}

func TestCartService_PublishFailureDoesNotFailCheckout(t *testing.T) {
	gw := newFakeGateway("https://pay.example/session/123")
	events := &fakeEvents{err: errBoom}
	svc := newTestCartService(nil, gw, events)
	ctx := context.Background()
	svc.Cart(ctx, "s1").AddItem(ctx, gbpItem("A", "10.00", 1))

	_, err := svc.Checkout(ctx, "s1")
	assert.NoError(t, err)
}

func TestCartService_FailedCheckoutPublishesNothing(t *testing.T) {
	events := &fakeEvents{}
	svc := newTestCartService(nil, newFakeGateway(""), events)

	_, err := svc.Checkout(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, events.events)
}

func TestCartService_EvictIdle(t *testing.T) {
	store := newFakeStore()
	svc := newTestCartService(store, nil, nil)
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	svc.Cart(ctx, "old").AddItem(ctx, gbpItem("A", "10.00", 1))
	now = now.Add(45 * time.Second)
	svc.Cart(ctx, "fresh")
	now = now.Add(30 * time.Second)

	assert.Equal(t, 1, svc.EvictIdle())
	assert.Equal(t, 1, svc.Sessions())

	// The evicted cart comes back from its snapshot.
	assert.Equal(t, 1, svc.Cart(ctx, "old").TotalItemCount())
}
