package ledger

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shopledger/backend/internal/domain/ledger"
	"github.com/shopledger/backend/internal/domain/shared"
)

// ProductCacheInvalidator drops cached quantities for a product
type ProductCacheInvalidator interface {
	InvalidateProduct(ctx context.Context, tenantID, productID uuid.UUID)
}

// StockCacheInvalidationHandler listens for ledger events that change
// on-hand quantities and evicts the affected products from the stock level
// cache, shortening the staleness window below the cache TTL.
type StockCacheInvalidationHandler struct {
	cache  ProductCacheInvalidator
	logger *zap.Logger
}

// NewStockCacheInvalidationHandler creates a new StockCacheInvalidationHandler
func NewStockCacheInvalidationHandler(cache ProductCacheInvalidator, logger *zap.Logger) *StockCacheInvalidationHandler {
	return &StockCacheInvalidationHandler{
		cache:  cache,
		logger: logger,
	}
}

// EventTypes returns the ledger events that affect cached quantities
func (h *StockCacheInvalidationHandler) EventTypes() []string {
	return []string{
		ledger.EventUnitCreated,
		ledger.EventCountSessionCompleted,
	}
}

// Handle evicts the products named by the event
func (h *StockCacheInvalidationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch evt := event.(type) {
	case *ledger.UnitCreatedEvent:
		h.cache.InvalidateProduct(ctx, evt.TenantID(), evt.ProductID)
	case *ledger.CountSessionCompletedEvent:
		for _, productID := range evt.ProductIDs {
			h.cache.InvalidateProduct(ctx, evt.TenantID(), productID)
		}
	default:
		h.logger.Debug("Ignoring event without cache impact",
			zap.String("event_type", event.EventType()),
		)
	}
	return nil
}

var _ shared.EventHandler = (*StockCacheInvalidationHandler)(nil)
