package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shopledger/backend/internal/domain/ledger"
	"github.com/shopledger/backend/internal/domain/shared"
)

// GormUnitRepository implements ledger.UnitRepository using GORM
type GormUnitRepository struct {
	db     *gorm.DB
	outbox shared.OutboxEventSaver
}

// NewGormUnitRepository creates a new GormUnitRepository
func NewGormUnitRepository(db *gorm.DB) *GormUnitRepository {
	return &GormUnitRepository{db: db}
}

// SetOutboxEventSaver makes the repository write the aggregate's domain
// events to the outbox in the same transaction as the unit rows
func (r *GormUnitRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outbox = saver
}

func (r *GormUnitRepository) flushEvents(ctx context.Context, unit *ledger.InventoryUnit) error {
	if r.outbox == nil {
		return nil
	}
	events := unit.GetDomainEvents()
	if len(events) == 0 {
		return nil
	}
	if err := r.outbox.SaveEvents(ctx, r.db, events...); err != nil {
		return err
	}
	unit.ClearDomainEvents()
	return nil
}

// forUpdate applies a row lock where the dialect supports it. SQLite, used
// in tests, has no row-level locks and rejects the clause.
func (r *GormUnitRepository) forUpdate(query *gorm.DB) *gorm.DB {
	if r.db.Dialector.Name() == "postgres" {
		return query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return query
}

// FindByID finds a unit by its id within a tenant
func (r *GormUnitRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ledger.InventoryUnit, error) {
	var unit ledger.InventoryUnit
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&unit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &unit, nil
}

// FindByIDForUpdate finds a unit by id and locks the row for the transaction
func (r *GormUnitRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*ledger.InventoryUnit, error) {
	var unit ledger.InventoryUnit
	if err := r.forUpdate(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&unit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &unit, nil
}

// FindBySerial finds the unit carrying the given serial number
func (r *GormUnitRepository) FindBySerial(ctx context.Context, tenantID uuid.UUID, serial string) (*ledger.InventoryUnit, error) {
	var unit ledger.InventoryUnit
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND serial = ?", tenantID, serial).
		First(&unit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &unit, nil
}

// FindOrCreateLot returns the lot matching product, location, cost and
// condition exactly, creating an empty lot when none exists. The matched
// row is locked so concurrent stock operations serialize on it. Lots are
// matched in the status their condition implies, so damaged-condition
// entries keep accumulating into the one DAMAGED lot for the key.
func (r *GormUnitRepository) FindOrCreateLot(ctx context.Context, tenantID, productID, locationID uuid.UUID, unitCost decimal.Decimal, condition string) (*ledger.InventoryUnit, error) {
	condition = ledger.NormalizeCondition(condition)

	var unit ledger.InventoryUnit
	err := r.forUpdate(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND product_id = ? AND location_id = ? AND unit_cost = ? AND condition = ? AND serial IS NULL AND status = ?",
			tenantID, productID, locationID, unitCost, condition, ledger.StatusForCondition(condition)).
		Order("created_at ASC").
		First(&unit).Error
	if err == nil {
		return &unit, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	lot := ledger.NewLot(tenantID, productID, locationID, unitCost, condition)
	if err := r.db.WithContext(ctx).Create(lot).Error; err != nil {
		return nil, err
	}
	if err := r.flushEvents(ctx, lot); err != nil {
		return nil, err
	}
	return lot, nil
}

// FindOldestWithQuantity returns the oldest available lot holding at least
// minQuantity. Lots are never split across a single consumption, so absence
// of a sufficient lot is an insufficient stock condition.
func (r *GormUnitRepository) FindOldestWithQuantity(ctx context.Context, tenantID, productID, locationID uuid.UUID, minQuantity decimal.Decimal) (*ledger.InventoryUnit, error) {
	var unit ledger.InventoryUnit
	if err := r.forUpdate(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND product_id = ? AND location_id = ? AND serial IS NULL AND status = ? AND quantity >= ?",
			tenantID, productID, locationID, ledger.StatusAvailable, minQuantity).
		Order("created_at ASC").
		First(&unit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrInsufficientStock
		}
		return nil, err
	}
	return &unit, nil
}

// FindOldestLot returns the oldest available lot regardless of quantity
func (r *GormUnitRepository) FindOldestLot(ctx context.Context, tenantID, productID, locationID uuid.UUID) (*ledger.InventoryUnit, error) {
	var unit ledger.InventoryUnit
	if err := r.forUpdate(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND product_id = ? AND location_id = ? AND serial IS NULL AND status = ?",
			tenantID, productID, locationID, ledger.StatusAvailable).
		Order("created_at ASC").
		First(&unit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &unit, nil
}

// FindAvailableAtLocation returns all available units with stock at a location
func (r *GormUnitRepository) FindAvailableAtLocation(ctx context.Context, tenantID, locationID uuid.UUID) ([]*ledger.InventoryUnit, error) {
	var units []*ledger.InventoryUnit
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND location_id = ? AND status = ? AND quantity > 0",
			tenantID, locationID, ledger.StatusAvailable).
		Order("created_at ASC").
		Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

// QuantityOnHand sums available quantity for a product, optionally narrowed
// to one location
func (r *GormUnitRepository) QuantityOnHand(ctx context.Context, tenantID, productID uuid.UUID, locationID *uuid.UUID) (decimal.Decimal, error) {
	query := r.db.WithContext(ctx).
		Model(&ledger.InventoryUnit{}).
		Select("COALESCE(SUM(quantity), 0) as total").
		Where("tenant_id = ? AND product_id = ? AND status = ?", tenantID, productID, ledger.StatusAvailable)
	if locationID != nil {
		query = query.Where("location_id = ?", *locationID)
	}

	var result struct {
		Total decimal.Decimal
	}
	if err := query.Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// List returns a filtered, paginated unit listing, newest first
func (r *GormUnitRepository) List(ctx context.Context, tenantID uuid.UUID, filter ledger.UnitFilter) (shared.Paginated[*ledger.InventoryUnit], error) {
	query := r.db.WithContext(ctx).
		Model(&ledger.InventoryUnit{}).
		Where("tenant_id = ?", tenantID)

	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.LocationID != nil {
		query = query.Where("location_id = ?", *filter.LocationID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Condition != nil {
		query = query.Where("condition = ?", ledger.NormalizeCondition(*filter.Condition))
	}
	if filter.Serial != nil {
		query = query.Where("serial = ?", *filter.Serial)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("LOWER(serial) LIKE LOWER(?) OR LOWER(notes) LIKE LOWER(?)", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return shared.Paginated[*ledger.InventoryUnit]{}, err
	}

	var units []*ledger.InventoryUnit
	if err := query.
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&units).Error; err != nil {
		return shared.Paginated[*ledger.InventoryUnit]{}, err
	}

	return shared.NewPaginated(units, total, filter.Page, filter.PageSize), nil
}

// Save creates or updates a unit without a version check
func (r *GormUnitRepository) Save(ctx context.Context, unit *ledger.InventoryUnit) error {
	if err := r.db.WithContext(ctx).Save(unit).Error; err != nil {
		return err
	}
	return r.flushEvents(ctx, unit)
}

// SaveWithLock updates a unit guarded by its version. The version check
// fails when another transaction touched the row since it was loaded.
func (r *GormUnitRepository) SaveWithLock(ctx context.Context, unit *ledger.InventoryUnit) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(unit).
		Where("id = ? AND version = ?", unit.ID, unit.Version).
		Updates(map[string]interface{}{
			"location_id": unit.LocationID,
			"quantity":    unit.Quantity,
			"unit_cost":   unit.UnitCost,
			"condition":   unit.Condition,
			"status":      unit.Status,
			"notes":       unit.Notes,
			"version":     unit.Version + 1,
			"updated_at":  now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	unit.UpdatedAt = now
	unit.IncrementVersion()
	return r.flushEvents(ctx, unit)
}

var _ ledger.UnitRepository = (*GormUnitRepository)(nil)
