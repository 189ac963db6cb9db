package clients

import (
	"errors"
	"strings"
)

var (
	// ErrProductNotFound is returned when no product has the requested handle.
	ErrProductNotFound = errors.New("product not found")
	// ErrPaymentRequired means the merchant account is not provisioned for
	// storefront API access (HTTP 402).
	ErrPaymentRequired = errors.New("storefront payment required")
	// ErrUnavailable wraps every transport-level failure: network errors,
	// non-2xx responses, GraphQL errors and an open circuit breaker.
	ErrUnavailable = errors.New("storefront gateway unavailable")
)

// UserError is one item-level problem reported by cart creation.
type UserError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when the gateway rejects one or more lines.
type ValidationError struct {
	Errors []UserError
}

func (e *ValidationError) Error() string {
	return "cart creation failed: " + strings.Join(e.Messages(), ", ")
}

// Messages lists the user-facing messages in gateway order.
func (e *ValidationError) Messages() []string {
	msgs := make([]string, len(e.Errors))
	for i, ue := range e.Errors {
		msgs[i] = ue.Message
	}
	return msgs
}
