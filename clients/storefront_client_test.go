package clients

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"straphub-service/models"
)

const productJSON = `{
  "id": "gid://shopify/Product/1",
  "title": "Silicone Sport Band",
  "description": "Soft silicone",
  "descriptionHtml": "<p>Soft silicone</p>",
  "handle": "silicone-sport-band",
  "vendor": "StrapHub",
  "priceRange": {"minVariantPrice": {"amount": "10.0", "currencyCode": "GBP"}},
  "compareAtPriceRange": {"minVariantPrice": {"amount": "0.0", "currencyCode": "GBP"}},
  "images": {"edges": [{"node": {"url": "https://cdn.example/black.jpg", "altText": "Black"}}]},
  "variants": {"edges": [{"node": {
    "id": "gid://shopify/ProductVariant/11",
    "title": "Black / 41mm",
    "price": {"amount": "10.0", "currencyCode": "GBP"},
    "compareAtPrice": {"amount": "15.0", "currencyCode": "GBP"},
    "availableForSale": true,
    "selectedOptions": [{"name": "Color", "value": "Black"}],
    "image": null
  }}]},
  "options": [{"name": "Color", "values": ["Black"]}]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *StorefrontClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewStorefrontClient(StorefrontConfig{
		Endpoint:       srv.URL,
		Token:          "test-token",
		Timeout:        2 * time.Second,
		BreakerTimeout: time.Minute,
	}, zap.NewNop())
}

func decodeRequest(t *testing.T, r *http.Request) graphQLRequest {
	t.Helper()
	var req graphQLRequest
	require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
	return req
}

func TestFetchProductByHandle(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-token", r.Header.Get(accessTokenHeader))
		req := decodeRequest(t, r)
		assert.Equal(t, "silicone-sport-band", req.Variables["handle"])
		_, _ = w.Write([]byte(`{"data": {"productByHandle": ` + productJSON + `}}`))
	})

	p, err := client.FetchProductByHandle(context.Background(), "silicone-sport-band")
	require.NoError(t, err)

	assert.Equal(t, "Silicone Sport Band", p.Title)
	assert.Nil(t, p.CompareAtPrice, "zero compare-at range is dropped")
	require.Len(t, p.Variants, 1)
	v := p.Variants[0]
	assert.Equal(t, models.Money{Amount: "10.0", CurrencyCode: "GBP"}, v.Price)
	require.NotNil(t, v.CompareAtPrice)
	assert.Equal(t, "15.0", v.CompareAtPrice.Amount)
	assert.Nil(t, v.Image)
	assert.Equal(t, "Black", p.Images[0].AltText)
}

func TestFetchProductByHandle_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"productByHandle": null}}`))
	})

	_, err := client.FetchProductByHandle(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestFetchProducts_PassesQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		assert.EqualValues(t, 12, req.Variables["first"])
		assert.Equal(t, "tag:leather", req.Variables["query"])
		_, _ = w.Write([]byte(`{"data": {"products": {"edges": [{"node": ` + productJSON + `}]}}}`))
	})

	products, err := client.FetchProducts(context.Background(), 12, "tag:leather")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "silicone-sport-band", products[0].Handle)
}

func TestCreateCheckoutSession(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		input := req.Variables["input"].(map[string]any)
		lines := input["lines"].([]any)
		require.Len(t, lines, 2)
		first := lines[0].(map[string]any)
		assert.Equal(t, "A", first["merchandiseId"])
		assert.EqualValues(t, 3, first["quantity"])
		_, _ = w.Write([]byte(`{"data": {"cartCreate": {
			"cart": {"id": "gid://shopify/Cart/1", "checkoutUrl": "https://pay.example/session/123"},
			"userErrors": []}}}`))
	})

	session, err := client.CreateCheckoutSession(context.Background(), []models.CheckoutLine{
		{VariantID: "A", Quantity: 3},
		{VariantID: "B", Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/session/123", session.CheckoutURL)
	assert.Equal(t, "gid://shopify/Cart/1", session.CartID)
}

func TestCreateCheckoutSession_UserErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"cartCreate": {"cart": null, "userErrors": [
			{"field": ["input", "lines", "0", "merchandiseId"], "message": "The merchandise is sold out."}
		]}}}`))
	})

	_, err := client.CreateCheckoutSession(context.Background(), []models.CheckoutLine{{VariantID: "A", Quantity: 1}})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []UserError{{Field: "input.lines.0.merchandiseId", Message: "The merchandise is sold out."}}, verr.Errors)
	assert.Equal(t, "cart creation failed: The merchandise is sold out.", verr.Error())
}

func TestCreateCheckoutSession_MissingURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"cartCreate": {"cart": {"id": "x", "checkoutUrl": ""}, "userErrors": []}}}`))
	})

	_, err := client.CreateCheckoutSession(context.Background(), []models.CheckoutLine{{VariantID: "A", Quantity: 1}})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRequest_PaymentRequired(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	})

	_, err := client.FetchProducts(context.Background(), 10, "")
	assert.ErrorIs(t, err, ErrPaymentRequired)
	assert.False(t, errors.Is(err, ErrUnavailable))
}

func TestRequest_ServerErrorAndGraphQLErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := client.FetchProducts(context.Background(), 10, "")
	assert.ErrorIs(t, err, ErrUnavailable)

	client = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors": [{"message": "Throttled"}, {"message": "Try later"}]}`))
	})
	_, err = client.FetchProducts(context.Background(), 10, "")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorContains(t, err, "Throttled, Try later")
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 5; i++ {
		_, err := client.FetchProducts(context.Background(), 1, "")
		require.ErrorIs(t, err, ErrUnavailable)
	}
	_, err := client.FetchProducts(context.Background(), 1, "")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.EqualValues(t, 5, calls.Load(), "open breaker must not reach the server")
}

func TestBreaker_IgnoresPaymentRequired(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusPaymentRequired)
	})

	for i := 0; i < 7; i++ {
		_, err := client.FetchProducts(context.Background(), 1, "")
		require.ErrorIs(t, err, ErrPaymentRequired)
	}
	assert.EqualValues(t, 7, calls.Load())
}
