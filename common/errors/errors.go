package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Category groups errors by how the storefront should present them.
type Category string

const (
	CategoryBadRequest         Category = "bad_request"
	CategoryNotFound           Category = "not_found"
	CategoryEmptyCart          Category = "empty_cart"
	CategoryValidation         Category = "validation"
	CategoryMerchantConfig     Category = "merchant_configuration"
	CategoryNetwork            Category = "network"
	CategoryCheckoutInProgress Category = "checkout_in_progress"
	CategoryRateLimited        Category = "rate_limited"
	CategoryInternal           Category = "internal"
)

// Error represents an application error
type Error struct {
	Code     int      `json:"code"`
	Category Category `json:"category"`
	Message  string   `json:"message"`
	Details  []string `json:"details,omitempty"`
	Err      error    `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches an *Error with the same category and message, so
// errors.Is(err, ErrEmptyCart) holds for wrapped copies made by Wrap.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Category == e.Category && t.Message == e.Message
}

// New creates a new Error
func New(code int, category Category, message string, err error) *Error {
	return &Error{Code: code, Category: category, Message: message, Err: err}
}

// Wrap returns a copy of base carrying err as its cause.
func Wrap(base *Error, err error, details ...string) *Error {
	out := *base
	out.Err = err
	out.Details = details
	return &out
}

// Common error types
var (
	ErrBadRequest  = New(http.StatusBadRequest, CategoryBadRequest, "Bad request", nil)
	ErrNotFound    = New(http.StatusNotFound, CategoryNotFound, "Not found", nil)
	ErrRateLimited = New(http.StatusTooManyRequests, CategoryRateLimited, "Too many requests, please slow down", nil)
	ErrInternal    = New(http.StatusInternalServerError, CategoryInternal, "Something went wrong", nil)
)

// Cart and checkout error types
var (
	ErrEmptyCart          = New(http.StatusBadRequest, CategoryEmptyCart, "cart is empty", nil)
	ErrValidation         = New(http.StatusUnprocessableEntity, CategoryValidation, "Some items could not be checked out", nil)
	ErrMerchantConfig     = New(http.StatusServiceUnavailable, CategoryMerchantConfig, "The store is not able to take orders right now", nil)
	ErrNetwork            = New(http.StatusBadGateway, CategoryNetwork, "Could not reach the checkout service, please try again", nil)
	ErrCheckoutInProgress = New(http.StatusConflict, CategoryCheckoutInProgress, "Checkout is already in progress", nil)
)

var titles = map[Category]string{
	CategoryBadRequest:         "Invalid request",
	CategoryNotFound:           "Not found",
	CategoryEmptyCart:          "Your cart is empty",
	CategoryValidation:         "Checkout failed",
	CategoryMerchantConfig:     "Store unavailable",
	CategoryNetwork:            "Checkout failed",
	CategoryCheckoutInProgress: "Please wait",
	CategoryRateLimited:        "Slow down",
	CategoryInternal:           "Error",
}

// Notification is the transient, dismissable message the storefront shows.
type Notification struct {
	Category    Category `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Details     []string `json:"details,omitempty"`
	Dismissable bool     `json:"dismissable"`
}

// Notification renders the error for the shopper.
func (e *Error) Notification() Notification {
	return Notification{
		Category:    e.Category,
		Title:       titles[e.Category],
		Description: e.Message,
		Details:     e.Details,
		Dismissable: true,
	}
}

// From converts any error to an *Error, defaulting to internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(ErrInternal, err)
}

// Respond writes the error and its notification as JSON.
func Respond(c *gin.Context, err error) {
	appErr := From(err)
	c.AbortWithStatusJSON(appErr.Code, gin.H{
		"error":        appErr.Message,
		"notification": appErr.Notification(),
	})
}

// ErrorMiddleware renders the last error attached with c.Error.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			Respond(c, c.Errors.Last().Err)
		}
	}
}
