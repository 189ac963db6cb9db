package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"straphub-service/catalog"
	"straphub-service/models"
	awspkg "straphub-service/pkg/aws"
)

// sharedFetchTimeout bounds a gateway call shared by concurrent callers. The
// call runs detached from any one caller's context.
const sharedFetchTimeout = 15 * time.Second

// ProductSummary is a listing entry with its derived badges.
type ProductSummary struct {
	models.Product
	DiscountPercent int  `json:"discountPercent"`
	FreeShipping    bool `json:"freeShipping"`
	IsAccessory     bool `json:"isAccessory"`
}

// ProductDetail is a product page: the product plus everything inferred
// from its text.
type ProductDetail struct {
	models.Product
	DiscountPercent int                   `json:"discountPercent"`
	FreeShipping    bool                  `json:"freeShipping"`
	Analysis        catalog.Analysis      `json:"analysis"`
	Compatibility   string                `json:"compatibility"`
	Device          catalog.Compatibility `json:"device"`
	Specifications  []catalog.Spec        `json:"specifications"`
	ProsAndCons     catalog.ProsAndCons   `json:"prosAndCons"`
}

// CatalogService reads products through the gateway with a Redis cache in
// front. Concurrent misses for the same key share one gateway call.
type CatalogService struct {
	gateway   CatalogGateway
	cache     ProductCacher
	metrics   awspkg.MetricsRecorder
	logger    *zap.Logger
	threshold decimal.Decimal
	group     singleflight.Group
}

// NewCatalogService wires the service. cache and metrics may be nil.
func NewCatalogService(gateway CatalogGateway, cache ProductCacher, metrics awspkg.MetricsRecorder, logger *zap.Logger, freeShippingThreshold models.Money) *CatalogService {
	if metrics == nil {
		metrics = awspkg.NoopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		gateway:   gateway,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
		threshold: freeShippingThreshold.Decimal(),
	}
}

// ListProducts returns up to limit products matching query.
func (s *CatalogService) ListProducts(ctx context.Context, limit int, query string) ([]ProductSummary, error) {
	products, err := s.products(ctx, limit, query)
	if err != nil {
		return nil, err
	}
	out := make([]ProductSummary, len(products))
	for i, p := range products {
		out[i] = ProductSummary{
			Product:         p,
			DiscountPercent: catalog.DiscountPercent(p.MinPrice, p.CompareAtPrice),
			FreeShipping:    catalog.QualifiesForFreeShipping(p.MinPrice, s.threshold),
			IsAccessory:     catalog.IsAccessory(p.Title, p.Description),
		}
	}
	return out, nil
}

// Product returns the raw product for a handle.
func (s *CatalogService) Product(ctx context.Context, handle string) (*models.Product, error) {
	if s.cache != nil {
		p, ok, err := s.cache.GetProduct(ctx, handle)
		if err != nil {
			s.logger.Warn("catalog cache read failed", zap.String("handle", handle), zap.Error(err))
		}
		if ok {
			_ = s.metrics.RecordCount(ctx, awspkg.MetricCatalogCacheHit, nil)
			return p, nil
		}
		_ = s.metrics.RecordCount(ctx, awspkg.MetricCatalogCacheMiss, nil)
	}

	v, err := s.shared(ctx, "product:"+handle, func(ctx context.Context) (any, error) {
		return s.gateway.FetchProductByHandle(ctx, handle)
	})
	if err != nil {
		return nil, classifyGatewayError(err)
	}
	p := v.(*models.Product)
	if s.cache != nil {
		if err := s.cache.SetProduct(ctx, p); err != nil {
			s.logger.Warn("catalog cache write failed", zap.String("handle", handle), zap.Error(err))
		}
	}
	return p, nil
}

// ProductDetail returns the product page view for a handle.
func (s *CatalogService) ProductDetail(ctx context.Context, handle string) (*ProductDetail, error) {
	p, err := s.Product(ctx, handle)
	if err != nil {
		return nil, err
	}

	// Pricing badges follow the first variant, which is what the page
	// preselects.
	price, compareAt := p.MinPrice, p.CompareAtPrice
	if len(p.Variants) > 0 {
		price, compareAt = p.Variants[0].Price, p.Variants[0].CompareAtPrice
	}

	analysis := catalog.Analyze(p.Title, p.Description)
	return &ProductDetail{
		Product:         *p,
		DiscountPercent: catalog.DiscountPercent(price, compareAt),
		FreeShipping:    catalog.QualifiesForFreeShipping(price, s.threshold),
		Analysis:        analysis,
		Compatibility:   catalog.CompatibilityText(p.Title, p.Description),
		Device:          catalog.DeviceCompatibility(p.Title),
		Specifications:  catalog.Specifications(analysis),
		ProsAndCons:     catalog.Verdict(analysis),
	}, nil
}

func (s *CatalogService) products(ctx context.Context, limit int, query string) ([]models.Product, error) {
	if s.cache != nil {
		products, ok, err := s.cache.GetProductList(ctx, limit, query)
		if err != nil {
			s.logger.Warn("catalog cache read failed", zap.Error(err))
		}
		if ok {
			_ = s.metrics.RecordCount(ctx, awspkg.MetricCatalogCacheHit, nil)
			return products, nil
		}
		_ = s.metrics.RecordCount(ctx, awspkg.MetricCatalogCacheMiss, nil)
	}

	v, err := s.shared(ctx, fmt.Sprintf("list:%d:%s", limit, query), func(ctx context.Context) (any, error) {
		return s.gateway.FetchProducts(ctx, limit, query)
	})
	if err != nil {
		return nil, classifyGatewayError(err)
	}
	products := v.([]models.Product)
	if s.cache != nil {
		if err := s.cache.SetProductList(ctx, limit, query, products); err != nil {
			s.logger.Warn("catalog cache write failed", zap.Error(err))
		}
	}
	return products, nil
}

// shared runs fetch once per key across concurrent callers. A caller that
// gives up returns its own context error without cancelling the fetch for
// the others waiting on it.
func (s *CatalogService) shared(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error) {
	ch := s.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()
		return fetch(fctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}
