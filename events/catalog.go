package events

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// CatalogEvent is a product change notice relayed from the commerce
// platform's webhooks.
type CatalogEvent struct {
	Event  string `json:"event"` // e.g. "products/update"
	Handle string `json:"handle,omitempty"`
}

// CacheInvalidator drops cached catalog reads.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) (int64, error)
}

// CatalogInvalidator bumps the catalog cache version for every change
// notice, whatever transport delivered it.
type CatalogInvalidator struct {
	cache  CacheInvalidator
	logger *zap.Logger
}

func NewCatalogInvalidator(cache CacheInvalidator, logger *zap.Logger) *CatalogInvalidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogInvalidator{cache: cache, logger: logger}
}

// Handle decodes one message body and invalidates the cache. Bodies that
// do not decode are logged and acknowledged since redelivery cannot fix
// them; only cache failures are returned for retry.
func (h *CatalogInvalidator) Handle(ctx context.Context, body []byte) error {
	var event CatalogEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Warn("dropping invalid catalog event",
			zap.Int("size", len(body)),
			zap.Error(err))
		return nil
	}

	version, err := h.cache.Invalidate(ctx)
	if err != nil {
		return fmt.Errorf("invalidate catalog cache: %w", err)
	}
	h.logger.Info("catalog cache invalidated",
		zap.String("event", event.Event),
		zap.String("handle", event.Handle),
		zap.Int64("version", version))
	return nil
}
