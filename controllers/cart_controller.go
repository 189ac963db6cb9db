package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "straphub-service/common/errors"
	"straphub-service/common/middleware"
	"straphub-service/models"
	"straphub-service/services"
)

// IdempotencyHeader lets a client retry checkout without creating a
// second session.
const IdempotencyHeader = "Idempotency-Key"

// CartManager is the session cart registry.
type CartManager interface {
	Cart(ctx context.Context, sessionID string) *services.CartState
	AddVariant(ctx context.Context, sessionID string, product *models.Product, variantID string, quantity int) (*services.CartState, error)
	Checkout(ctx context.Context, sessionID string) (string, error)
}

// ProductFinder resolves a product by handle.
type ProductFinder interface {
	Product(ctx context.Context, handle string) (*models.Product, error)
}

// CheckoutKeyStore remembers checkout URLs by idempotency key.
type CheckoutKeyStore interface {
	Get(ctx context.Context, sessionID, key string) (string, error)
	Set(ctx context.Context, sessionID, key, checkoutURL string) error
}

type CartController struct {
	carts        CartManager
	products     ProductFinder
	keys         CheckoutKeyStore
	handoffDelay time.Duration
	logger       *zap.Logger
}

// NewCartController wires the handlers. keys may be nil, which disables
// Idempotency-Key handling.
func NewCartController(carts CartManager, products ProductFinder, keys CheckoutKeyStore, handoffDelay time.Duration, logger *zap.Logger) *CartController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartController{
		carts:        carts,
		products:     products,
		keys:         keys,
		handoffDelay: handoffDelay,
		logger:       logger,
	}
}

// CheckoutResponse is the JSON body of a successful checkout.
type CheckoutResponse struct {
	CheckoutURL string               `json:"checkoutUrl"`
	Handoff     services.HandoffPlan `json:"handoff"`
}

// GetCart returns the session's cart view
func (cc *CartController) GetCart(c *gin.Context) {
	cart := cc.carts.Cart(c.Request.Context(), middleware.SessionID(c))
	c.JSON(http.StatusOK, cart.View())
}

// AddItem snapshots the product and adds the variant to the cart
func (cc *CartController) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.Wrap(apperrors.ErrBadRequest, err, "invalid JSON body"))
		return
	}
	if err := validateRequest(req); err != nil {
		_ = c.Error(err)
		return
	}

	ctx := c.Request.Context()
	product, err := cc.products.Product(ctx, req.ProductHandle)
	if err != nil {
		_ = c.Error(err)
		return
	}

	cart, err := cc.carts.AddVariant(ctx, middleware.SessionID(c), product, req.VariantID, req.Quantity)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, cart.View())
}

// UpdateQuantity sets the quantity of a line; unknown variants are ignored
func (cc *CartController) UpdateQuantity(c *gin.Context) {
	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.Wrap(apperrors.ErrBadRequest, err, "invalid JSON body"))
		return
	}
	if err := validateRequest(req); err != nil {
		_ = c.Error(err)
		return
	}

	ctx := c.Request.Context()
	cart := cc.carts.Cart(ctx, middleware.SessionID(c))
	cart.UpdateQuantity(ctx, c.Param("variant_id"), *req.Quantity)
	c.JSON(http.StatusOK, cart.View())
}

// RemoveItem drops a line from the cart
func (cc *CartController) RemoveItem(c *gin.Context) {
	ctx := c.Request.Context()
	cart := cc.carts.Cart(ctx, middleware.SessionID(c))
	cart.RemoveItem(ctx, c.Param("variant_id"))
	c.JSON(http.StatusOK, cart.View())
}

// ClearCart empties the cart
func (cc *CartController) ClearCart(c *gin.Context) {
	ctx := c.Request.Context()
	cart := cc.carts.Cart(ctx, middleware.SessionID(c))
	cart.Clear(ctx)
	c.JSON(http.StatusOK, cart.View())
}

// Checkout creates a checkout session and returns the handoff plan, or
// redirects straight to checkout for non-JSON clients
func (cc *CartController) Checkout(c *gin.Context) {
	ctx := c.Request.Context()
	sid := middleware.SessionID(c)
	key := strings.TrimSpace(c.GetHeader(IdempotencyHeader))

	checkoutURL := cc.replay(ctx, sid, key)
	if checkoutURL == "" {
		var err error
		checkoutURL, err = cc.carts.Checkout(ctx, sid)
		if err != nil {
			cc.logger.Info("checkout rejected",
				zap.String("session_id", sid),
				zap.Error(err))
			_ = c.Error(err)
			return
		}
		cc.remember(ctx, sid, key, checkoutURL)
	}

	if wantsRedirect(c) {
		c.Redirect(http.StatusSeeOther, checkoutURL)
		return
	}
	c.JSON(http.StatusOK, CheckoutResponse{
		CheckoutURL: checkoutURL,
		Handoff:     services.NewHandoffPlan(checkoutURL, cc.handoffDelay),
	})
}

func (cc *CartController) replay(ctx context.Context, sid, key string) string {
	if cc.keys == nil || key == "" {
		return ""
	}
	checkoutURL, err := cc.keys.Get(ctx, sid, key)
	if err != nil {
		cc.logger.Warn("idempotency lookup failed", zap.String("session_id", sid), zap.Error(err))
		return ""
	}
	return checkoutURL
}

func (cc *CartController) remember(ctx context.Context, sid, key, checkoutURL string) {
	if cc.keys == nil || key == "" {
		return
	}
	if err := cc.keys.Set(ctx, sid, key, checkoutURL); err != nil {
		cc.logger.Warn("idempotency store failed", zap.String("session_id", sid), zap.Error(err))
	}
}

// wantsRedirect is true for ?redirect=true and for clients that did not
// ask for JSON, such as a plain form post.
func wantsRedirect(c *gin.Context) bool {
	if c.Query("redirect") == "true" {
		return true
	}
	accept := c.GetHeader("Accept")
	if accept == "" || strings.Contains(accept, "*/*") {
		return false
	}
	return !strings.Contains(accept, "application/json")
}
