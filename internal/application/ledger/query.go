package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shopledger/backend/internal/domain/ledger"
	"github.com/shopledger/backend/internal/domain/shared"
)

// StockLevelCache is a best-effort read cache for quantity lookups.
// Mutating paths never consult it; stale entries age out via TTL.
type StockLevelCache interface {
	GetQuantity(ctx context.Context, tenantID, productID uuid.UUID, locationID *uuid.UUID) (decimal.Decimal, bool)
	SetQuantity(ctx context.Context, tenantID, productID uuid.UUID, locationID *uuid.UUID, quantity decimal.Decimal)
}

// QueryService serves the ledger's read APIs: on-hand quantities, unit
// listings and movement history. Reads bypass the transaction scope and go
// straight to the repositories.
type QueryService struct {
	units     ledger.UnitRepository
	movements ledger.MovementRepository
	cache     StockLevelCache
	logger    *zap.Logger
}

// NewQueryService creates a new QueryService. The cache is optional.
func NewQueryService(
	units ledger.UnitRepository,
	movements ledger.MovementRepository,
	cache StockLevelCache,
	logger *zap.Logger,
) *QueryService {
	return &QueryService{
		units:     units,
		movements: movements,
		cache:     cache,
		logger:    logger,
	}
}

// QuantityOnHand returns the AVAILABLE quantity of a product, optionally
// narrowed to one location
func (s *QueryService) QuantityOnHand(ctx context.Context, tenantID, productID uuid.UUID, locationID *uuid.UUID) (decimal.Decimal, error) {
	if s.cache != nil {
		if qty, ok := s.cache.GetQuantity(ctx, tenantID, productID, locationID); ok {
			return qty, nil
		}
	}

	qty, err := s.units.QuantityOnHand(ctx, tenantID, productID, locationID)
	if err != nil {
		return decimal.Zero, err
	}

	if s.cache != nil {
		s.cache.SetQuantity(ctx, tenantID, productID, locationID, qty)
	}
	return qty, nil
}

// GetUnit returns one unit by id
func (s *QueryService) GetUnit(ctx context.Context, tenantID, unitID uuid.UUID) (*UnitResponse, error) {
	unit, err := s.units.FindByID(ctx, tenantID, unitID)
	if err != nil {
		return nil, err
	}
	resp := ToUnitResponse(unit)
	return &resp, nil
}

// GetUnitBySerial returns the serialized unit carrying the serial
func (s *QueryService) GetUnitBySerial(ctx context.Context, tenantID uuid.UUID, serial string) (*UnitResponse, error) {
	if serial == "" {
		return nil, shared.NewDomainError("BAD_REQUEST", "Serial cannot be empty")
	}
	unit, err := s.units.FindBySerial(ctx, tenantID, serial)
	if err != nil {
		return nil, err
	}
	resp := ToUnitResponse(unit)
	return &resp, nil
}

// ListUnits returns a filtered, paginated unit listing
func (s *QueryService) ListUnits(ctx context.Context, tenantID uuid.UUID, filter ledger.UnitFilter) (shared.Paginated[UnitResponse], error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	page, err := s.units.List(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[UnitResponse]{}, err
	}

	items := make([]UnitResponse, 0, len(page.Items))
	for _, unit := range page.Items {
		items = append(items, ToUnitResponse(unit))
	}
	return shared.NewPaginated(items, page.Total, page.Page, page.PageSize), nil
}

// ListMovements returns filtered, paginated movement history
func (s *QueryService) ListMovements(ctx context.Context, tenantID uuid.UUID, filter ledger.MovementFilter) (shared.Paginated[MovementResponse], error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	page, err := s.movements.List(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[MovementResponse]{}, err
	}

	items := make([]MovementResponse, 0, len(page.Items))
	for _, m := range page.Items {
		items = append(items, ToMovementResponse(m))
	}
	return shared.NewPaginated(items, page.Total, page.Page, page.PageSize), nil
}
