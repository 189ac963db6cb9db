package services

import (
	"context"

	"straphub-service/models"
)

// SnapshotStore persists one cart snapshot per session. Load returns
// database.ErrSnapshotNotFound when the session has none.
type SnapshotStore interface {
	Save(ctx context.Context, sessionID string, snap models.CartSnapshot) error
	Load(ctx context.Context, sessionID string) (*models.CartSnapshot, error)
	Delete(ctx context.Context, sessionID string) error
}

// CheckoutGateway creates remote checkout sessions.
type CheckoutGateway interface {
	CreateCheckoutSession(ctx context.Context, lines []models.CheckoutLine) (models.CheckoutSession, error)
}

// CatalogGateway reads products from the commerce platform.
type CatalogGateway interface {
	FetchProducts(ctx context.Context, limit int, query string) ([]models.Product, error)
	FetchProductByHandle(ctx context.Context, handle string) (*models.Product, error)
}

// ProductCacher caches catalog reads.
type ProductCacher interface {
	GetProductList(ctx context.Context, limit int, query string) ([]models.Product, bool, error)
	SetProductList(ctx context.Context, limit int, query string, products []models.Product) error
	GetProduct(ctx context.Context, handle string) (*models.Product, bool, error)
	SetProduct(ctx context.Context, p *models.Product) error
}

// EventPublisher delivers checkout events to downstream consumers.
type EventPublisher interface {
	PublishCheckout(ctx context.Context, event models.CheckoutEvent) error
}
