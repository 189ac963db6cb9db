package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"straphub-service/database"
	"straphub-service/models"
	awspkg "straphub-service/pkg/aws"
)

const (
	CheckoutEventName = "checkout.session_created"
	publishTimeout    = 5 * time.Second
)

type cartEntry struct {
	state    *CartState
	lastUsed time.Time
}

// CartService maps session ids to their carts. A cart is rehydrated from
// the snapshot store on first use and dropped from memory after IdleTTL
// without access; its snapshot stays in the store.
type CartService struct {
	mu    sync.Mutex
	carts map[string]*cartEntry
	group singleflight.Group

	store   SnapshotStore
	gateway CheckoutGateway
	events  EventPublisher
	metrics awspkg.MetricsRecorder
	logger  *zap.Logger
	opts    CartOptions
	idleTTL time.Duration
	now     func() time.Time
}

// CartServiceConfig holds the registry settings.
type CartServiceConfig struct {
	Options CartOptions
	IdleTTL time.Duration
}

// NewCartService wires the registry. events and metrics may be nil.
func NewCartService(store SnapshotStore, gateway CheckoutGateway, events EventPublisher, metrics awspkg.MetricsRecorder, logger *zap.Logger, cfg CartServiceConfig) *CartService {
	if metrics == nil {
		metrics = awspkg.NoopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	return &CartService{
		carts:   make(map[string]*cartEntry),
		store:   store,
		gateway: gateway,
		events:  events,
		metrics: metrics,
		logger:  logger,
		opts:    cfg.Options,
		idleTTL: cfg.IdleTTL,
		now:     time.Now,
	}
}

// Cart returns the session's cart, rehydrating it on first use. Concurrent
// first requests for one session share a single snapshot load.
func (s *CartService) Cart(ctx context.Context, sessionID string) *CartState {
	if st := s.lookup(sessionID); st != nil {
		return st
	}

	v, _, _ := s.group.Do(sessionID, func() (any, error) {
		if st := s.lookup(sessionID); st != nil {
			return st, nil
		}
		items, settled := s.rehydrate(ctx, sessionID)
		st := NewCartState(sessionID, items, s.store, s.gateway, s.opts, s.logger)
		if settled {
			s.mu.Lock()
			s.carts[sessionID] = &cartEntry{state: st, lastUsed: s.now()}
			s.mu.Unlock()
		}
		return st, nil
	})
	return v.(*CartState)
}

func (s *CartService) lookup(sessionID string) *CartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.carts[sessionID]; ok {
		e.lastUsed = s.now()
		return e.state
	}
	return nil
}

// rehydrate loads the saved items. A missing, unreadable or unreachable
// snapshot yields an empty cart. settled is false when the store could not
// be reached, so the next request tries again instead of keeping the
// empty cart in memory.
func (s *CartService) rehydrate(ctx context.Context, sessionID string) (items []models.LineItem, settled bool) {
	if s.store == nil {
		return nil, true
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	snap, err := s.store.Load(ctx, sessionID)
	switch {
	case errors.Is(err, database.ErrSnapshotNotFound):
		return nil, true
	case errors.Is(err, database.ErrSnapshotUnreadable):
		s.logger.Warn("discarding unreadable cart snapshot",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return nil, true
	case err != nil:
		s.logger.Error("cart snapshot store unavailable",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return nil, false
	}
	_ = s.metrics.RecordCount(ctx, awspkg.MetricCartRehydrated, nil)
	return snap.Items, true
}

// AddVariant snapshots product and adds quantity of its variant to the
// session's cart.
func (s *CartService) AddVariant(ctx context.Context, sessionID string, product *models.Product, variantID string, quantity int) (*CartState, error) {
	variant, ok := product.FindVariant(variantID)
	if !ok {
		return nil, ErrVariantNotFound
	}
	cart := s.Cart(ctx, sessionID)
	cart.AddItem(ctx, models.NewLineItem(product, variant, quantity))
	return cart, nil
}

// Checkout creates a checkout session for the session's cart and, on
// success, publishes a CheckoutEvent. Publishing failures are logged only.
func (s *CartService) Checkout(ctx context.Context, sessionID string) (string, error) {
	start := s.now()
	checkoutURL, lines, err := s.Cart(ctx, sessionID).createCheckout(ctx)

	dims := map[string]string{"Outcome": "success"}
	if err != nil {
		dims["Outcome"] = "failure"
		_ = s.metrics.RecordCount(ctx, awspkg.MetricCheckoutFailed, dims)
		return "", err
	}
	_ = s.metrics.RecordCount(ctx, awspkg.MetricCheckoutCreated, dims)
	_ = s.metrics.RecordLatency(ctx, awspkg.MetricCheckoutLatency, s.now().Sub(start), dims)

	s.publish(ctx, models.CheckoutEvent{
		Event:       CheckoutEventName,
		SessionID:   sessionID,
		Lines:       lines,
		CheckoutURL: checkoutURL,
		Timestamp:   s.now().UTC(),
	})
	return checkoutURL, nil
}

func (s *CartService) publish(ctx context.Context, event models.CheckoutEvent) {
	if s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.events.PublishCheckout(ctx, event); err != nil {
		s.logger.Error("failed to publish checkout event",
			zap.String("session_id", event.SessionID),
			zap.Error(err))
	}
}

// EvictIdle drops carts not used since IdleTTL. Carts with a checkout in
// flight are kept.
func (s *CartService) EvictIdle() int {
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, e := range s.carts {
		if e.lastUsed.Before(cutoff) && !e.state.IsLoading() {
			delete(s.carts, id)
			evicted++
		}
	}
	return evicted
}

// Sessions is the number of carts held in memory.
func (s *CartService) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}

// RunJanitor evicts idle carts until ctx is done.
func (s *CartService) RunJanitor(ctx context.Context) {
	ticker := time.NewTicker(s.idleTTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.EvictIdle(); n > 0 {
				s.logger.Debug("evicted idle carts", zap.Int("count", n))
			}
		}
	}
}
