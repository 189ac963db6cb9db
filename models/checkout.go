package models

import "time"

// CheckoutLine is what the gateway receives per line item. Price and
// display data are never sent; the platform prices the session itself.
type CheckoutLine struct {
	VariantID string `json:"merchandiseId"`
	Quantity  int    `json:"quantity"`
}

// CheckoutSession is the ephemeral result of creating a remote cart.
type CheckoutSession struct {
	CartID      string `json:"cartId,omitempty"`
	CheckoutURL string `json:"checkoutUrl"`
}

// CheckoutEvent is published after a checkout session has been created.
type CheckoutEvent struct {
	Event       string         `json:"event"` // "checkout.session_created"
	SessionID   string         `json:"session_id"`
	Lines       []CheckoutLine `json:"lines"`
	CheckoutURL string         `json:"checkout_url"`
	Timestamp   time.Time      `json:"timestamp"`
}
