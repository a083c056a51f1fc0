package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopledger/backend/internal/domain/shared"
)

// UnitFilter narrows unit listings
type UnitFilter struct {
	ProductID  *uuid.UUID
	LocationID *uuid.UUID
	Status     *UnitStatus
	Condition  *string
	Serial     *string
	Search     string
	Page       int
	PageSize   int
}

// MovementFilter narrows movement history queries
type MovementFilter struct {
	ProductID     *uuid.UUID
	UnitID        *uuid.UUID
	LocationID    *uuid.UUID
	Kind          *MovementKind
	ReferenceType string
	ReferenceID   string
	From          *time.Time
	To            *time.Time
	Page          int
	PageSize      int
}

// UnitRepository is the persistence contract for inventory units
type UnitRepository interface {
	// FindByID returns the unit or shared.ErrNotFound
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*InventoryUnit, error)

	// FindByIDForUpdate loads the unit under a row lock inside the ambient
	// transaction so concurrent mutations serialize at the store
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*InventoryUnit, error)

	// FindBySerial returns the serialized unit carrying the serial, or
	// shared.ErrNotFound. Serials are unique across the tenant.
	FindBySerial(ctx context.Context, tenantID uuid.UUID, serial string) (*InventoryUnit, error)

	// FindOrCreateLot returns the lot matching product+location+cost+condition
	// exactly, creating an empty one when absent. Lots are never merged
	// across differing cost or condition.
	FindOrCreateLot(ctx context.Context, tenantID, productID, locationID uuid.UUID, unitCost decimal.Decimal, condition string) (*InventoryUnit, error)

	// FindOldestWithQuantity selects the oldest AVAILABLE lot that alone
	// holds at least minQuantity. No lot splitting: returns
	// shared.ErrInsufficientStock when no single lot suffices.
	FindOldestWithQuantity(ctx context.Context, tenantID, productID, locationID uuid.UUID, minQuantity decimal.Decimal) (*InventoryUnit, error)

	// FindOldestLot returns the oldest AVAILABLE lot regardless of quantity,
	// or shared.ErrNotFound
	FindOldestLot(ctx context.Context, tenantID, productID, locationID uuid.UUID) (*InventoryUnit, error)

	// FindAvailableAtLocation lists AVAILABLE units with positive quantity
	// at the location, oldest first. Used to populate count sessions.
	FindAvailableAtLocation(ctx context.Context, tenantID, locationID uuid.UUID) ([]*InventoryUnit, error)

	// QuantityOnHand sums AVAILABLE quantity for a product, optionally
	// narrowed to one location
	QuantityOnHand(ctx context.Context, tenantID, productID uuid.UUID, locationID *uuid.UUID) (decimal.Decimal, error)

	// List returns a filtered, paginated unit listing
	List(ctx context.Context, tenantID uuid.UUID, filter UnitFilter) (shared.Paginated[*InventoryUnit], error)

	// Save persists the unit without version checking
	Save(ctx context.Context, unit *InventoryUnit) error

	// SaveWithLock persists the unit with an optimistic version check,
	// returning shared.ErrConcurrencyConflict on a stale version
	SaveWithLock(ctx context.Context, unit *InventoryUnit) error
}

// MovementRepository is the persistence contract for the movement log.
// Append-only: no update or delete methods exist.
type MovementRepository interface {
	// Record inserts one immutable movement row
	Record(ctx context.Context, movement *MovementRecord) error

	// FindByReference returns movements of the given kind linked to a
	// business document, oldest first
	FindByReference(ctx context.Context, tenantID uuid.UUID, kind MovementKind, refType, refID string) ([]*MovementRecord, error)

	// List returns filtered, paginated movement history
	List(ctx context.Context, tenantID uuid.UUID, filter MovementFilter) (shared.Paginated[*MovementRecord], error)
}

// CountSessionRepository is the persistence contract for count sessions
type CountSessionRepository interface {
	// FindByID returns the session with its lines, or shared.ErrNotFound
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*CountSession, error)

	// Save persists the session and its lines
	Save(ctx context.Context, session *CountSession) error

	// SaveWithLock persists the session with an optimistic version check
	SaveWithLock(ctx context.Context, session *CountSession) error

	// List returns paginated sessions, newest first
	List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[*CountSession], error)

	// NextSessionNumber generates the next tenant-scoped session number.
	// Must be called inside the ambient transaction so numbering stays
	// consistent with the session insert.
	NextSessionNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}
