package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"straphub-service/models"
)

const accessTokenHeader = "X-Shopify-Storefront-Access-Token"

// StorefrontConfig configures the storefront GraphQL client.
type StorefrontConfig struct {
	Endpoint string
	Token    string
	Timeout  time.Duration
	// Breaker trips after this many consecutive transport failures.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// StorefrontClient talks to the commerce platform's Storefront GraphQL API.
type StorefrontClient struct {
	endpoint string
	token    string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker[[]byte]
	logger   *zap.Logger
}

// NewStorefrontClient builds a client with a circuit breaker around the
// HTTP transport.
func NewStorefrontClient(cfg StorefrontConfig, logger *zap.Logger) *StorefrontClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	c := &StorefrontClient{
		endpoint: cfg.Endpoint,
		token:    cfg.Token,
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "storefront",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		// A 402 is a merchant configuration problem and a cancelled request
		// is the caller's choice; neither says the gateway is unhealthy.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrPaymentRequired) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return c
}

// FetchProducts lists up to limit products, optionally filtered by a
// storefront search query.
func (c *StorefrontClient) FetchProducts(ctx context.Context, limit int, query string) ([]models.Product, error) {
	vars := map[string]any{"first": limit}
	if query != "" {
		vars["query"] = query
	}

	var data productsData
	if err := c.do(ctx, productsQuery, vars, &data); err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}

	products := make([]models.Product, 0, len(data.Products.Edges))
	for _, e := range data.Products.Edges {
		products = append(products, e.Node.toModel())
	}
	return products, nil
}

// FetchProductByHandle returns one product or ErrProductNotFound.
func (c *StorefrontClient) FetchProductByHandle(ctx context.Context, handle string) (*models.Product, error) {
	var data productByHandleData
	if err := c.do(ctx, productByHandleQuery, map[string]any{"handle": handle}, &data); err != nil {
		return nil, fmt.Errorf("fetch product %q: %w", handle, err)
	}
	if data.ProductByHandle == nil {
		return nil, ErrProductNotFound
	}
	p := data.ProductByHandle.toModel()
	return &p, nil
}

// CreateCheckoutSession creates a remote cart from the given lines and
// returns its checkout URL. Item-level rejections come back as
// *ValidationError.
func (c *StorefrontClient) CreateCheckoutSession(ctx context.Context, lines []models.CheckoutLine) (models.CheckoutSession, error) {
	input := make([]cartLineInput, len(lines))
	for i, l := range lines {
		input[i] = cartLineInput{MerchandiseID: l.VariantID, Quantity: l.Quantity}
	}

	var data cartCreateData
	vars := map[string]any{"input": map[string]any{"lines": input}}
	if err := c.do(ctx, cartCreateMutation, vars, &data); err != nil {
		return models.CheckoutSession{}, fmt.Errorf("create checkout: %w", err)
	}

	if ues := data.CartCreate.UserErrors; len(ues) > 0 {
		verr := &ValidationError{Errors: make([]UserError, len(ues))}
		for i, ue := range ues {
			verr.Errors[i] = ue.toModel()
		}
		return models.CheckoutSession{}, verr
	}

	cart := data.CartCreate.Cart
	if cart == nil || cart.CheckoutURL == "" {
		return models.CheckoutSession{}, fmt.Errorf("create checkout: %w: no checkout URL returned", ErrUnavailable)
	}
	return models.CheckoutSession{CartID: cart.ID, CheckoutURL: cart.CheckoutURL}, nil
}

// do posts one GraphQL operation through the breaker and decodes data
// into out.
func (c *StorefrontClient) do(ctx context.Context, query string, vars map[string]any, out any) error {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.post(ctx, query, vars)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return err
	}

	var resp graphQLResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, len(resp.Errors))
		for i, e := range resp.Errors {
			msgs[i] = e.Message
		}
		return fmt.Errorf("%w: %s", ErrUnavailable, strings.Join(msgs, ", "))
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("%w: decode data: %v", ErrUnavailable, err)
	}
	return nil
}

func (c *StorefrontClient) post(ctx context.Context, query string, vars map[string]any) ([]byte, error) {
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(accessTokenHeader, c.token)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("storefront request",
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	switch {
	case resp.StatusCode == http.StatusPaymentRequired:
		return nil, ErrPaymentRequired
	case resp.StatusCode >= 300:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status=%d body=%s", ErrUnavailable, resp.StatusCode, snippet)
	}
	return io.ReadAll(resp.Body)
}
