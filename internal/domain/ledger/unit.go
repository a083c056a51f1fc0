package ledger

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopledger/backend/internal/domain/shared"
)

// UnitStatus represents the lifecycle status of an inventory unit
type UnitStatus string

const (
	StatusAvailable         UnitStatus = "AVAILABLE"
	StatusSold              UnitStatus = "SOLD"
	StatusDamaged           UnitStatus = "DAMAGED"
	StatusUsedInConsumption UnitStatus = "USED_IN_CONSUMPTION"
	StatusReserved          UnitStatus = "RESERVED"
)

// IsValid checks if the status is a known value
func (s UnitStatus) IsValid() bool {
	switch s {
	case StatusAvailable, StatusSold, StatusDamaged, StatusUsedInConsumption, StatusReserved:
		return true
	}
	return false
}

// IsTerminal reports whether the status blocks further stock operations
// until an explicit reversal or restock brings the unit back to AVAILABLE.
func (s UnitStatus) IsTerminal() bool {
	return s != StatusAvailable
}

// InventoryUnit is the ledger's core aggregate. It is either a lot
// (non-serialized stock of one product at one location, one cost, one
// condition grade) or a serialized unit (one physical item with a unique
// serial and quantity bounded to 0 or 1). Units are never deleted; a
// quantity of zero remains as history.
type InventoryUnit struct {
	shared.TenantAggregateRoot
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_units_product_location"`
	LocationID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_units_product_location"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitCost      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Condition     string          `gorm:"type:varchar(64);not null;default:'new'"`
	Status        UnitStatus      `gorm:"type:varchar(32);not null;default:'AVAILABLE'"`
	// Unique per tenant among non-null serials; the partial composite
	// constraint lives in the schema migration.
	Serial        *string         `gorm:"type:varchar(128);index:idx_units_serial"`
	Notes         string          `gorm:"type:text"`
	ReceiptLineID *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (InventoryUnit) TableName() string {
	return "inventory_units"
}

// NewLot creates an empty lot for the given product, location, cost and
// condition grade. Quantity starts at zero; intake increments it.
func NewLot(tenantID, productID, locationID uuid.UUID, unitCost decimal.Decimal, condition string) *InventoryUnit {
	condition = NormalizeCondition(condition)
	unit := &InventoryUnit{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ProductID:           productID,
		LocationID:          locationID,
		Quantity:            decimal.Zero,
		UnitCost:            unitCost,
		Condition:           condition,
		Status:              StatusForCondition(condition),
	}
	unit.AddDomainEvent(NewUnitCreatedEvent(unit))
	return unit
}

// NewSerializedUnit creates a serialized unit with quantity 1. Serial
// uniqueness is enforced by the store, not here.
func NewSerializedUnit(tenantID, productID, locationID uuid.UUID, serial string, unitCost decimal.Decimal, condition string) (*InventoryUnit, error) {
	if serial == "" {
		return nil, shared.NewDomainError("BAD_REQUEST", "Serial cannot be empty")
	}
	condition = NormalizeCondition(condition)
	unit := &InventoryUnit{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ProductID:           productID,
		LocationID:          locationID,
		Quantity:            decimal.NewFromInt(1),
		UnitCost:            unitCost,
		Condition:           condition,
		Status:              StatusForCondition(condition),
		Serial:              &serial,
	}
	unit.AddDomainEvent(NewUnitCreatedEvent(unit))
	return unit, nil
}

// IsSerialized reports whether the unit carries a serial identity
func (u *InventoryUnit) IsSerialized() bool {
	return u.Serial != nil && *u.Serial != ""
}

// IsAvailable reports whether the unit can participate in stock operations
func (u *InventoryUnit) IsAvailable() bool {
	return u.Status == StatusAvailable
}

// SerialValue returns the serial or an empty string for lots
func (u *InventoryUnit) SerialValue() string {
	if u.Serial == nil {
		return ""
	}
	return *u.Serial
}

// Increase adds quantity to a lot. Serialized units cannot be increased;
// their quantity only moves between 0 and 1 via status transitions.
func (u *InventoryUnit) Increase(qty decimal.Decimal) error {
	if u.IsSerialized() {
		return shared.NewDomainError("BAD_REQUEST", "Serialized units cannot be quantity-adjusted")
	}
	if !qty.IsPositive() {
		return shared.NewDomainError("BAD_REQUEST", "Increase quantity must be positive")
	}
	u.Quantity = u.Quantity.Add(qty)
	return nil
}

// Decrease removes quantity from a lot, refusing to go below zero
func (u *InventoryUnit) Decrease(qty decimal.Decimal) error {
	if u.IsSerialized() {
		return shared.NewDomainError("BAD_REQUEST", "Serialized units cannot be quantity-adjusted")
	}
	if !qty.IsPositive() {
		return shared.NewDomainError("BAD_REQUEST", "Decrease quantity must be positive")
	}
	if u.Quantity.LessThan(qty) {
		return shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("Insufficient stock: have %s, need %s", u.Quantity.String(), qty.String()))
	}
	u.Quantity = u.Quantity.Sub(qty)
	return nil
}

// ConsumeSerialized transitions a serialized unit out of stock. The target
// status records why it left (SOLD, USED_IN_CONSUMPTION, RESERVED, DAMAGED).
func (u *InventoryUnit) ConsumeSerialized(target UnitStatus) error {
	if !u.IsSerialized() {
		return shared.NewDomainError("BAD_REQUEST", "Unit is not serialized")
	}
	if !target.IsValid() || target == StatusAvailable {
		return shared.NewDomainError("BAD_REQUEST", fmt.Sprintf("Invalid consumption status: %s", target))
	}
	if u.Status != StatusAvailable {
		return shared.NewDomainError("CONFLICT",
			fmt.Sprintf("Serialized unit %s is already %s", u.SerialValue(), u.Status))
	}
	u.Status = target
	u.Quantity = decimal.Zero
	return nil
}

// RestoreSerialized returns a consumed serialized unit to AVAILABLE with
// quantity 1. Used by consumption reversal and restock.
func (u *InventoryUnit) RestoreSerialized() error {
	if !u.IsSerialized() {
		return shared.NewDomainError("BAD_REQUEST", "Unit is not serialized")
	}
	if u.Status == StatusAvailable {
		return shared.NewDomainError("CONFLICT",
			fmt.Sprintf("Serialized unit %s is already available", u.SerialValue()))
	}
	u.Status = StatusAvailable
	u.Quantity = decimal.NewFromInt(1)
	return nil
}

// MoveTo re-points the unit at another location. Quantity is unaffected;
// lot transfers are modeled as a decrement plus a destination-lot increment
// instead of calling this.
func (u *InventoryUnit) MoveTo(locationID uuid.UUID) error {
	if u.LocationID == locationID {
		return shared.NewDomainError("BAD_REQUEST", "Unit is already at the target location")
	}
	u.LocationID = locationID
	return nil
}

// ApplyCondition re-grades the unit and derives the matching status
func (u *InventoryUnit) ApplyCondition(condition string) {
	u.Condition = NormalizeCondition(condition)
	u.Status = StatusForCondition(u.Condition)
}

// RestockSerialized brings a consumed serialized unit back into stock under
// a possibly different condition grade. The grade decides the resulting
// status via the fixed condition table, so a "damaged" return lands in
// DAMAGED rather than AVAILABLE.
func (u *InventoryUnit) RestockSerialized(condition string) error {
	if !u.IsSerialized() {
		return shared.NewDomainError("BAD_REQUEST", "Unit is not serialized")
	}
	if u.Status == StatusAvailable {
		return shared.NewDomainError("CONFLICT",
			fmt.Sprintf("Serialized unit %s is already in stock", u.SerialValue()))
	}
	u.ApplyCondition(condition)
	u.Quantity = decimal.NewFromInt(1)
	return nil
}

// MatchesLotKey reports whether this lot groups with the given
// product/location/cost/condition combination. Cost layers stay distinct:
// a differing cost or condition means a separate lot.
func (u *InventoryUnit) MatchesLotKey(productID, locationID uuid.UUID, unitCost decimal.Decimal, condition string) bool {
	return !u.IsSerialized() &&
		u.ProductID == productID &&
		u.LocationID == locationID &&
		u.UnitCost.Equal(unitCost) &&
		u.Condition == NormalizeCondition(condition)
}
