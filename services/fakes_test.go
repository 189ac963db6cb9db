package services

import (
	"context"
	"errors"
	"sync"

	"straphub-service/database"
	"straphub-service/models"
)

type fakeStore struct {
	mu      sync.Mutex
	snaps   map[string]models.CartSnapshot
	saves   int
	loads   int
	saveErr error
	loadErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{snaps: map[string]models.CartSnapshot{}}
}

func (f *fakeStore) Save(_ context.Context, sessionID string, snap models.CartSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.snaps[sessionID] = snap
	return nil
}

func (f *fakeStore) Load(_ context.Context, sessionID string) (*models.CartSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	snap, ok := f.snaps[sessionID]
	if !ok {
		return nil, database.ErrSnapshotNotFound
	}
	return &snap, nil
}

func (f *fakeStore) Delete(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.snaps, sessionID)
	return nil
}

func (f *fakeStore) snapshot(sessionID string) (models.CartSnapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, ok := f.snaps[sessionID]
	return snap, ok
}

// fakeGateway answers checkout calls. When block is set, each call signals
// started and waits for release.
type fakeGateway struct {
	mu      sync.Mutex
	calls   [][]models.CheckoutLine
	url     string
	err     error
	block   bool
	started chan struct{}
	release chan struct{}
}

func newFakeGateway(url string) *fakeGateway {
	return &fakeGateway{
		url:     url,
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (g *fakeGateway) CreateCheckoutSession(ctx context.Context, lines []models.CheckoutLine) (models.CheckoutSession, error) {
	g.mu.Lock()
	g.calls = append(g.calls, lines)
	block := g.block
	g.mu.Unlock()

	if block {
		g.started <- struct{}{}
		select {
		case <-g.release:
		case <-ctx.Done():
			return models.CheckoutSession{}, ctx.Err()
		}
	}
	if g.err != nil {
		return models.CheckoutSession{}, g.err
	}
	return models.CheckoutSession{CartID: "gid://shopify/Cart/1", CheckoutURL: g.url}, nil
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type fakeEvents struct {
	mu     sync.Mutex
	events []models.CheckoutEvent
	err    error
}

func (f *fakeEvents) PublishCheckout(_ context.Context, event models.CheckoutEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return f.err
}

var errBoom = errors.New("boom")

func gbpItem(variantID, amount string, qty int) models.LineItem {
	return models.LineItem{
		VariantID:    variantID,
		Product:      models.ProductSnapshot{ID: "p-" + variantID, Title: "Strap " + variantID, Handle: "strap-" + variantID},
		VariantTitle: variantID,
		UnitPrice:    models.Money{Amount: amount, CurrencyCode: "GBP"},
		Quantity:     qty,
		DisplayImage: models.PlaceholderImage,
	}
}

func testOptions() CartOptions {
	return CartOptions{
		FreeShippingThreshold: models.Money{Amount: "25.00", CurrencyCode: "GBP"},
		CheckoutChannel:       "online_store",
	}
}
