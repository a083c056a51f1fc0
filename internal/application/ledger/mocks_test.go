package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopledger/backend/internal/domain/ledger"
	"github.com/shopledger/backend/internal/domain/location"
	"github.com/shopledger/backend/internal/domain/shared"
)

// MockUnitRepository is a mock implementation of ledger.UnitRepository
type MockUnitRepository struct {
	mock.Mock
}

func (m *MockUnitRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ledger.InventoryUnit, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.InventoryUnit), args.Error(1)
}

func (m *MockUnitRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*ledger.InventoryUnit, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.InventoryUnit), args.Error(1)
}

func (m *MockUnitRepository) FindBySerial(ctx context.Context, tenantID uuid.UUID, serial string) (*ledger.InventoryUnit, error) {
	args := m.Called(ctx, tenantID, serial)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.InventoryUnit), args.Error(1)
}

func (m *MockUnitRepository) FindOrCreateLot(ctx context.Context, tenantID, productID, locationID uuid.UUID, unitCost decimal.Decimal, condition string) (*ledger.InventoryUnit, error) {
	args := m.Called(ctx, tenantID, productID, locationID, unitCost, condition)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.InventoryUnit), args.Error(1)
}

func (m *MockUnitRepository) FindOldestWithQuantity(ctx context.Context, tenantID, productID, locationID uuid.UUID, minQuantity decimal.Decimal) (*ledger.InventoryUnit, error) {
	args := m.Called(ctx, tenantID, productID, locationID, minQuantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.InventoryUnit), args.Error(1)
}

func (m *MockUnitRepository) FindOldestLot(ctx context.Context, tenantID, productID, locationID uuid.UUID) (*ledger.InventoryUnit, error) {
	args := m.Called(ctx, tenantID, productID, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.InventoryUnit), args.Error(1)
}

func (m *MockUnitRepository) FindAvailableAtLocation(ctx context.Context, tenantID, locationID uuid.UUID) ([]*ledger.InventoryUnit, error) {
	args := m.Called(ctx, tenantID, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.InventoryUnit), args.Error(1)
}

func (m *MockUnitRepository) QuantityOnHand(ctx context.Context, tenantID, productID uuid.UUID, locationID *uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, productID, locationID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockUnitRepository) List(ctx context.Context, tenantID uuid.UUID, filter ledger.UnitFilter) (shared.Paginated[*ledger.InventoryUnit], error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(shared.Paginated[*ledger.InventoryUnit]), args.Error(1)
}

func (m *MockUnitRepository) Save(ctx context.Context, unit *ledger.InventoryUnit) error {
	args := m.Called(ctx, unit)
	return args.Error(0)
}

func (m *MockUnitRepository) SaveWithLock(ctx context.Context, unit *ledger.InventoryUnit) error {
	args := m.Called(ctx, unit)
	return args.Error(0)
}

// MockMovementRepository is a mock implementation of ledger.MovementRepository
type MockMovementRepository struct {
	mock.Mock
	recorded []*ledger.MovementRecord
}

func (m *MockMovementRepository) Record(ctx context.Context, movement *ledger.MovementRecord) error {
	args := m.Called(ctx, movement)
	if args.Error(0) == nil {
		m.recorded = append(m.recorded, movement)
	}
	return args.Error(0)
}

func (m *MockMovementRepository) FindByReference(ctx context.Context, tenantID uuid.UUID, kind ledger.MovementKind, refType, refID string) ([]*ledger.MovementRecord, error) {
	args := m.Called(ctx, tenantID, kind, refType, refID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.MovementRecord), args.Error(1)
}

func (m *MockMovementRepository) List(ctx context.Context, tenantID uuid.UUID, filter ledger.MovementFilter) (shared.Paginated[*ledger.MovementRecord], error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(shared.Paginated[*ledger.MovementRecord]), args.Error(1)
}

// MockCountSessionRepository is a mock implementation of ledger.CountSessionRepository
type MockCountSessionRepository struct {
	mock.Mock
}

func (m *MockCountSessionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ledger.CountSession, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.CountSession), args.Error(1)
}

func (m *MockCountSessionRepository) Save(ctx context.Context, session *ledger.CountSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockCountSessionRepository) SaveWithLock(ctx context.Context, session *ledger.CountSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockCountSessionRepository) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[*ledger.CountSession], error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(shared.Paginated[*ledger.CountSession]), args.Error(1)
}

func (m *MockCountSessionRepository) NextSessionNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

// MockProductReader is a mock implementation of catalog.ProductReader
type MockProductReader struct {
	mock.Mock
}

func (m *MockProductReader) Get(ctx context.Context, tenantID, productID uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, tenantID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

// MockLocationReader is a mock implementation of location.LocationReader
type MockLocationReader struct {
	mock.Mock
}

func (m *MockLocationReader) Get(ctx context.Context, tenantID, locationID uuid.UUID) (*location.Location, error) {
	args := m.Called(ctx, tenantID, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*location.Location), args.Error(1)
}
