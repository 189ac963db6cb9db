package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"straphub-service/clients"
	apperrors "straphub-service/common/errors"
	"straphub-service/models"
)

func newTestCart(store SnapshotStore, gw CheckoutGateway) *CartState {
	return NewCartState("s1", nil, store, gw, testOptions(), nil)
}

func variantIDs(items []models.LineItem) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.VariantID
	}
	return ids
}

func TestAddItem_UniqueVariants(t *testing.T) {
	cart := newTestCart(nil, nil)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		cart.AddItem(ctx, gbpItem(fmt.Sprintf("V%d", i%3), "5.00", 1))
	}

	assert.Equal(t, []string{"V0", "V1", "V2"}, variantIDs(cart.Items()))
	assert.Equal(t, 10, cart.TotalItemCount())
}

func TestAddItem_FirstSeenMetadataWins(t *testing.T) {
	cart := newTestCart(nil, nil)
	ctx := context.Background()

	cart.AddItem(ctx, gbpItem("A", "10.00", 1))
	later := gbpItem("A", "99.00", 2)
	later.VariantTitle = "renamed"
	cart.AddItem(ctx, later)

	items := cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, "10.00", items[0].UnitPrice.Amount)
	assert.Equal(t, "A", items[0].VariantTitle)
}

func TestAddItem_QuantityBelowOneCountsAsOne(t *testing.T) {
	cart := newTestCart(nil, nil)
	cart.AddItem(context.Background(), gbpItem("A", "10.00", 0))
	assert.Equal(t, 1, cart.TotalItemCount())
}

func TestUpdateQuantity_ZeroOrNegativeRemoves(t *testing.T) {
	for _, qty := range []int{0, -5} {
		t.Run(fmt.Sprint(qty), func(t *testing.T) {
			cart := newTestCart(nil, nil)
			ctx := context.Background()
			cart.AddItem(ctx, gbpItem("V", "10.00", 2))

			assert.True(t, cart.UpdateQuantity(ctx, "V", qty))
			assert.Empty(t, cart.Items())
			assert.False(t, cart.RemoveItem(ctx, "V"))
		})
	}
}

func TestUpdateQuantity_SetsNotIncrements(t *testing.T) {
	cart := newTestCart(nil, nil)
	ctx := context.Background()
	cart.AddItem(ctx, gbpItem("V", "10.00", 2))

	assert.True(t, cart.UpdateQuantity(ctx, "V", 5))
	assert.Equal(t, 5, cart.Items()[0].Quantity)
}

func TestMissingVariant_IsNoOp(t *testing.T) {
	store := newFakeStore()
	cart := newTestCart(store, nil)
	ctx := context.Background()
	cart.AddItem(ctx, gbpItem("A", "10.00", 1))
	before := cart.Items()
	saves := store.saves

	assert.False(t, cart.UpdateQuantity(ctx, "nonexistent", 3))
	assert.False(t, cart.RemoveItem(ctx, "nonexistent"))
	assert.Equal(t, before, cart.Items())
	assert.Equal(t, saves, store.saves, "no-op must not rewrite the snapshot")
}

func TestItems_ReturnsCopy(t *testing.T) {
	cart := newTestCart(nil, nil)
	cart.AddItem(context.Background(), gbpItem("A", "10.00", 1))

	items := cart.Items()
	items[0].Quantity = 99
	assert.Equal(t, 1, cart.Items()[0].Quantity)
}

func TestScenario_AccumulateAndSubtotal(t *testing.T) {
	cart := newTestCart(nil, nil)
	ctx := context.Background()

	cart.AddItem(ctx, gbpItem("A", "10.00", 1))
	cart.AddItem(ctx, gbpItem("A", "10.00", 2))

	items := cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, "10.00", items[0].UnitPrice.Amount)
	assert.Equal(t, 3, cart.TotalItemCount())

	sub, err := cart.Subtotal()
	require.NoError(t, err)
	assert.Equal(t, models.Money{Amount: "30.00", CurrencyCode: "GBP"}, sub)
	assert.Equal(t, "£30.00", sub.Format())
}

func TestScenario_UpdateToZeroLeavesOther(t *testing.T) {
	cart := newTestCart(nil, nil)
	ctx := context.Background()

	cart.AddItem(ctx, gbpItem("A", "10.00", 1))
	cart.AddItem(ctx, gbpItem("B", "12.00", 1))
	cart.UpdateQuantity(ctx, "A", 0)

	items := cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "B", items[0].VariantID)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestScenario_EmptyCartCheckout(t *testing.T) {
	gw := newFakeGateway("https://pay.example/session/123")
	cart := newTestCart(nil, gw)

	url, err := cart.CreateCheckout(context.Background())
	assert.Empty(t, url)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, "cart is empty", err.Error())
	assert.Zero(t, gw.callCount())
	assert.False(t, cart.IsLoading())
}

func TestScenario_CheckoutAppendsChannel(t *testing.T) {
	gw := newFakeGateway("https://pay.example/session/123")
	cart := newTestCart(nil, gw)
	ctx := context.Background()
	cart.AddItem(ctx, gbpItem("A", "10.00", 2))
	cart.AddItem(ctx, gbpItem("B", "12.00", 1))
	before := cart.Items()

	url, err := cart.CreateCheckout(ctx)
	require.NoError(t, err)

	assert.Equal(t, "https://pay.example/session/123?channel=online_store", url)
	assert.Equal(t, before, cart.Items())
	assert.False(t, cart.IsLoading())
	require.Equal(t, 1, gw.callCount())
	assert.Equal(t, []models.CheckoutLine{{VariantID: "A", Quantity: 2}, {VariantID: "B", Quantity: 1}}, gw.calls[0])
}

func TestCheckout_KeepsExistingQuery(t *testing.T) {
	gw := newFakeGateway("https://pay.example/c/1?key=abc&channel=storefront")
	cart := newTestCart(nil, gw)
	cart.AddItem(context.Background(), gbpItem("A", "10.00", 1))

	url, err := cart.CreateCheckout(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/c/1?channel=online_store&key=abc", url)
}

func TestCheckout_LoadingBracketsCall(t *testing.T) {
	gw := newFakeGateway("https://pay.example/session/123")
	gw.block = true
	cart := newTestCart(nil, gw)
	ctx := context.Background()
	cart.AddItem(ctx, gbpItem("A", "10.00", 1))

	assert.False(t, cart.IsLoading())

	type result struct {
		url string
		err error
	}
	done := make(chan result, 1)
	go func() {
		url, err := cart.CreateCheckout(ctx)
		done <- result{url, err}
	}()

	select {
	case <-gw.started:
	case <-time.After(2 * time.Second):
		t.Fatal("gateway was not called")
	}
	assert.True(t, cart.IsLoading())
	assert.True(t, cart.View().IsLoading)

	// A second attempt while one is in flight is rejected without a call.
	_, err := cart.CreateCheckout(ctx)
	assert.ErrorIs(t, err, ErrCheckoutInProgress)

	// Edits apply immediately but are not part of the submitted manifest.
	cart.AddItem(ctx, gbpItem("B", "5.00", 1))
	assert.Len(t, cart.Items(), 2)

	close(gw.release)
	var res result
	select {
	case res = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("checkout did not finish")
	}

	require.NoError(t, res.err)
	assert.Equal(t, "https://pay.example/session/123?channel=online_store", res.url)
	assert.False(t, cart.IsLoading())
	assert.Equal(t, 1, gw.callCount())
	assert.Equal(t, []models.CheckoutLine{{VariantID: "A", Quantity: 1}}, gw.calls[0])
}

func TestCheckout_FailurePreservesItems(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category *apperrors.Error
	}{
		{"network", fmt.Errorf("create checkout: %w: dial tcp", clients.ErrUnavailable), apperrors.ErrNetwork},
		{"validation", &clients.ValidationError{Errors: []clients.UserError{{Field: "lines.0", Message: "Sold out"}}}, apperrors.ErrValidation},
		{"payment required", fmt.Errorf("create checkout: %w", clients.ErrPaymentRequired), apperrors.ErrMerchantConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newFakeGateway("")
			gw.err = tt.err
			cart := newTestCart(nil, gw)
			ctx := context.Background()
			cart.AddItem(ctx, gbpItem("A", "10.00", 2))
			before := cart.Items()

			url, err := cart.CreateCheckout(ctx)
			assert.Empty(t, url)
			assert.ErrorIs(t, err, tt.category)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, before, cart.Items())
			assert.False(t, cart.IsLoading())
		})
	}
}

func TestCheckout_ValidationDetails(t *testing.T) {
	gw := newFakeGateway("")
	gw.err = &clients.ValidationError{Errors: []clients.UserError{
		{Field: "lines.0", Message: "Sold out"},
		{Field: "lines.1", Message: "Not available"},
	}}
	cart := newTestCart(nil, gw)
	cart.AddItem(context.Background(), gbpItem("A", "10.00", 1))

	_, err := cart.CreateCheckout(context.Background())
	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, []string{"Sold out", "Not available"}, appErr.Details)
	assert.Equal(t, 422, appErr.Code)
}

func TestCheckout_InvalidURLIsNetworkError(t *testing.T) {
	gw := newFakeGateway("not a url")
	cart := newTestCart(nil, gw)
	cart.AddItem(context.Background(), gbpItem("A", "10.00", 1))

	_, err := cart.CreateCheckout(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrNetwork)
}

func TestPersistence_RoundTrip(t *testing.T) {
	store := newFakeStore()
	cart := newTestCart(store, nil)
	ctx := context.Background()

	cart.AddItem(ctx, gbpItem("A", "10.00", 1))
	cart.AddItem(ctx, gbpItem("B", "12.00", 1))
	cart.AddItem(ctx, gbpItem("A", "10.00", 2))
	cart.UpdateQuantity(ctx, "B", 4)

	snap, ok := store.snapshot("s1")
	require.True(t, ok)
	assert.Equal(t, models.SnapshotSchemaVersion, snap.SchemaVersion)
	assert.Equal(t, cart.Items(), snap.Items)
	assert.Equal(t, 4, store.saves)

	restored := NewCartState("s1", snap.Items, store, nil, testOptions(), nil)
	assert.Equal(t, cart.Items(), restored.Items())
}

func TestPersistence_FailureNeverFailsMutation(t *testing.T) {
	store := newFakeStore()
	store.saveErr = errBoom
	cart := newTestCart(store, nil)

	assert.True(t, cart.AddItem(context.Background(), gbpItem("A", "10.00", 1)))
	assert.Len(t, cart.Items(), 1)
}

func TestPersistence_SurvivesCancelledContext(t *testing.T) {
	store := newFakeStore()
	cart := newTestCart(store, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cart.AddItem(ctx, gbpItem("A", "10.00", 1))
	_, ok := store.snapshot("s1")
	assert.True(t, ok)
}

func TestClear_DeletesSnapshot(t *testing.T) {
	store := newFakeStore()
	cart := newTestCart(store, nil)
	ctx := context.Background()
	cart.AddItem(ctx, gbpItem("A", "10.00", 1))

	cart.Clear(ctx)
	assert.Empty(t, cart.Items())
	_, ok := store.snapshot("s1")
	assert.False(t, ok)
}

func TestSubtotal_MixedCurrency(t *testing.T) {
	cart := newTestCart(nil, nil)
	ctx := context.Background()
	cart.AddItem(ctx, gbpItem("A", "10.00", 1))
	usd := gbpItem("B", "7.50", 2)
	usd.UnitPrice.CurrencyCode = "USD"
	cart.AddItem(ctx, usd)

	_, err := cart.Subtotal()
	assert.ErrorIs(t, err, ErrMixedCurrency)

	assert.Equal(t, []models.Money{
		{Amount: "10.00", CurrencyCode: "GBP"},
		{Amount: "15.00", CurrencyCode: "USD"},
	}, cart.SubtotalsByCurrency())

	view := cart.View()
	assert.True(t, view.MixedCurrency)
	assert.Nil(t, view.Subtotal)
	assert.Equal(t, 40.0, view.FreeShippingProgress)
}

func TestSubtotal_EmptyCartIsZero(t *testing.T) {
	sub, err := newTestCart(nil, nil).Subtotal()
	require.NoError(t, err)
	assert.Equal(t, models.Money{Amount: "0.00", CurrencyCode: "GBP"}, sub)
}

func TestFreeShippingProgress(t *testing.T) {
	cart := newTestCart(nil, nil)
	ctx := context.Background()
	assert.Equal(t, 0.0, cart.FreeShippingProgress())

	cart.AddItem(ctx, gbpItem("A", "10.00", 1))
	assert.Equal(t, 40.0, cart.FreeShippingProgress())
	view := cart.View()
	require.NotNil(t, view.AmountToFreeShipping)
	assert.Equal(t, "15.00", view.AmountToFreeShipping.Amount)

	cart.UpdateQuantity(ctx, "A", 3)
	assert.Equal(t, 100.0, cart.FreeShippingProgress())
	assert.Equal(t, "0.00", cart.View().AmountToFreeShipping.Amount)
}

func TestView_EmptyCart(t *testing.T) {
	view := newTestCart(nil, nil).View()
	assert.NotNil(t, view.Items)
	assert.Empty(t, view.Items)
	assert.False(t, view.IsLoading)
	assert.Equal(t, 0, view.TotalItemCount)
	require.NotNil(t, view.Subtotal)
	assert.Equal(t, "0.00", view.Subtotal.Amount)
}
