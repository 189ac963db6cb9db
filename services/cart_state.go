package services

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "straphub-service/common/errors"
	"straphub-service/models"
)

const persistTimeout = 3 * time.Second

// CartOptions are the store-wide settings every cart shares.
type CartOptions struct {
	// FreeShippingThreshold also fixes the store currency.
	FreeShippingThreshold models.Money
	// CheckoutChannel is appended to checkout URLs as ?channel=.
	CheckoutChannel string
}

// CartState is one session's cart. It is the only writer of its items and
// keeps the persisted snapshot in step with memory: every effective
// mutation is saved before the lock is released, so snapshots land in
// mutation order.
type CartState struct {
	mu        sync.Mutex
	sessionID string
	items     []models.LineItem
	loading   bool

	store   SnapshotStore
	gateway CheckoutGateway
	opts    CartOptions
	logger  *zap.Logger
}

// NewCartState builds a cart seeded with items (nil for an empty cart).
// store may be nil, in which case nothing is persisted.
func NewCartState(sessionID string, items []models.LineItem, store SnapshotStore, gateway CheckoutGateway, opts CartOptions, logger *zap.Logger) *CartState {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartState{
		sessionID: sessionID,
		items:     cloneItems(items),
		store:     store,
		gateway:   gateway,
		opts:      opts,
		logger:    logger.With(zap.String("session_id", sessionID)),
	}
}

// SessionID returns the owning session.
func (s *CartState) SessionID() string {
	return s.sessionID
}

// AddItem merges item into the cart. An existing line for the same variant
// has its quantity increased and keeps its original price and display
// data; otherwise the item is appended. Quantities below 1 count as 1.
func (s *CartState) AddItem(ctx context.Context, item models.LineItem) bool {
	if item.Quantity < 1 {
		item.Quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexLocked(item.VariantID); i >= 0 {
		s.items[i].Quantity += item.Quantity
	} else {
		s.items = append(s.items, item.Clone())
	}
	s.persistLocked(ctx)
	return true
}

// UpdateQuantity sets the quantity of a line. Zero or negative removes it.
// It reports false, and does nothing, when the variant is not in the cart.
func (s *CartState) UpdateQuantity(ctx context.Context, variantID string, quantity int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(variantID)
	if i < 0 {
		return false
	}
	if quantity <= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	} else {
		s.items[i].Quantity = quantity
	}
	s.persistLocked(ctx)
	return true
}

// RemoveItem drops the line for variantID. It reports false when there
// was nothing to remove.
func (s *CartState) RemoveItem(ctx context.Context, variantID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(variantID)
	if i < 0 {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.persistLocked(ctx)
	return true
}

// Clear empties the cart and deletes its snapshot. Checkout never calls it.
func (s *CartState) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	if s.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := s.store.Delete(ctx, s.sessionID); err != nil {
		s.logger.Warn("failed to delete cart snapshot", zap.Error(err))
	}
}

// CreateCheckout hands the current lines to the gateway and returns the
// checkout URL with the channel marker appended. Items are never modified.
func (s *CartState) CreateCheckout(ctx context.Context) (string, error) {
	checkoutURL, _, err := s.createCheckout(ctx)
	return checkoutURL, err
}

func (s *CartState) createCheckout(ctx context.Context) (string, []models.CheckoutLine, error) {
	s.mu.Lock()
	if len(s.items) == 0 {
		s.mu.Unlock()
		return "", nil, ErrEmptyCart
	}
	if s.loading {
		s.mu.Unlock()
		return "", nil, ErrCheckoutInProgress
	}
	s.loading = true
	lines := make([]models.CheckoutLine, len(s.items))
	for i, it := range s.items {
		lines[i] = models.CheckoutLine{VariantID: it.VariantID, Quantity: it.Quantity}
	}
	s.mu.Unlock()

	// The lock is not held across the gateway call: edits made meanwhile
	// apply to the cart but not to the manifest already sent.
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	session, err := s.gateway.CreateCheckoutSession(ctx, lines)
	if err != nil {
		s.logger.Warn("checkout session failed", zap.Error(err), zap.Int("lines", len(lines)))
		return "", lines, classifyGatewayError(err)
	}

	checkoutURL, err := withChannel(session.CheckoutURL, s.opts.CheckoutChannel)
	if err != nil {
		return "", lines, apperrors.Wrap(apperrors.ErrNetwork, err)
	}
	return checkoutURL, lines, nil
}

func withChannel(raw, channel string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid checkout url %q", raw)
	}
	if channel != "" {
		q := u.Query()
		q.Set("channel", channel)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Items returns a copy of the lines in display order.
func (s *CartState) Items() []models.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

// IsLoading reports whether a checkout is in flight.
func (s *CartState) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// TotalItemCount is the sum of quantities.
func (s *CartState) TotalItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalItemCount(s.items)
}

// Subtotal sums unit price times quantity. An empty cart is zero in the
// store currency; a cart priced in several currencies returns
// ErrMixedCurrency.
func (s *CartState) Subtotal() (models.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subtotalLocked()
}

// SubtotalsByCurrency returns one subtotal per currency, in order of first
// appearance.
func (s *CartState) SubtotalsByCurrency() []models.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return subtotalsByCurrency(s.items)
}

// FreeShippingProgress is the store-currency subtotal as a percentage of
// the free shipping threshold, clamped to [0, 100].
func (s *CartState) FreeShippingProgress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	progress, _ := s.freeShippingLocked()
	return progress
}

// View is a consistent read of the whole cart.
func (s *CartState) View() models.CartView {
	s.mu.Lock()
	defer s.mu.Unlock()

	subtotals := subtotalsByCurrency(s.items)
	view := models.CartView{
		Items:               cloneItems(s.items),
		IsLoading:           s.loading,
		TotalItemCount:      totalItemCount(s.items),
		SubtotalsByCurrency: subtotals,
		MixedCurrency:       len(subtotals) > 1,
	}
	if view.Items == nil {
		view.Items = []models.LineItem{}
	}
	if sub, err := s.subtotalLocked(); err == nil {
		view.Subtotal = &sub
	}
	progress, remaining := s.freeShippingLocked()
	view.FreeShippingProgress = progress
	view.AmountToFreeShipping = &remaining
	return view
}

func (s *CartState) indexLocked(variantID string) int {
	for i := range s.items {
		if s.items[i].VariantID == variantID {
			return i
		}
	}
	return -1
}

func (s *CartState) subtotalLocked() (models.Money, error) {
	subtotals := subtotalsByCurrency(s.items)
	switch len(subtotals) {
	case 0:
		return models.NewMoney(decimal.Zero, s.opts.FreeShippingThreshold.CurrencyCode), nil
	case 1:
		return subtotals[0], nil
	default:
		return models.Money{}, ErrMixedCurrency
	}
}

// freeShippingLocked returns progress and the amount still to spend.
// Only lines in the threshold currency count.
func (s *CartState) freeShippingLocked() (float64, models.Money) {
	threshold := s.opts.FreeShippingThreshold
	spent := decimal.Zero
	for _, m := range subtotalsByCurrency(s.items) {
		if m.CurrencyCode == threshold.CurrencyCode {
			spent = m.Decimal()
		}
	}

	limit := threshold.Decimal()
	if !limit.IsPositive() {
		return 100, models.NewMoney(decimal.Zero, threshold.CurrencyCode)
	}
	remaining := decimal.Max(limit.Sub(spent), decimal.Zero)
	pct := spent.Div(limit).Mul(decimal.NewFromInt(100))
	pct = decimal.Min(decimal.Max(pct, decimal.Zero), decimal.NewFromInt(100))
	return pct.Round(2).InexactFloat64(), models.NewMoney(remaining, threshold.CurrencyCode)
}

// persistLocked saves the current items. Failures are logged and never
// surface to the caller; the in-memory cart stays authoritative.
func (s *CartState) persistLocked(ctx context.Context) {
	if s.store == nil {
		return
	}
	snap := models.CartSnapshot{
		SchemaVersion: models.SnapshotSchemaVersion,
		SessionID:     s.sessionID,
		Items:         cloneItems(s.items),
		SavedAt:       time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := s.store.Save(ctx, s.sessionID, snap); err != nil {
		s.logger.Warn("failed to persist cart snapshot", zap.Error(err), zap.Int("items", len(snap.Items)))
	}
}

func totalItemCount(items []models.LineItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

func subtotalsByCurrency(items []models.LineItem) []models.Money {
	var order []string
	sums := map[string]decimal.Decimal{}
	for _, it := range items {
		cur := it.UnitPrice.CurrencyCode
		if _, ok := sums[cur]; !ok {
			order = append(order, cur)
			sums[cur] = decimal.Zero
		}
		sums[cur] = sums[cur].Add(it.Subtotal().Decimal())
	}
	out := make([]models.Money, 0, len(order))
	for _, cur := range order {
		out = append(out, models.NewMoney(sums[cur], cur))
	}
	return out
}

func cloneItems(items []models.LineItem) []models.LineItem {
	if items == nil {
		return nil
	}
	out := make([]models.LineItem, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}
