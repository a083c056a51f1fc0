package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopledger/backend/internal/domain/shared"
)

// MovementKind classifies a quantity change
type MovementKind string

const (
	KindIntake              MovementKind = "INTAKE"
	KindAdjustment          MovementKind = "ADJUSTMENT"
	KindTransferOut         MovementKind = "TRANSFER_OUT"
	KindTransferIn          MovementKind = "TRANSFER_IN"
	KindConsumption         MovementKind = "CONSUMPTION"
	KindConsumptionReversal MovementKind = "CONSUMPTION_REVERSAL"
	KindAssemblyIn          MovementKind = "ASSEMBLY_IN"
	KindAssemblyOut         MovementKind = "ASSEMBLY_OUT"
	KindDisassemblyIn       MovementKind = "DISASSEMBLY_IN"
	KindDisassemblyOut      MovementKind = "DISASSEMBLY_OUT"
	KindCountAdjustment     MovementKind = "COUNT_ADJUSTMENT"
	KindRestock             MovementKind = "RESTOCK"
)

// IsValid checks if the movement kind is a known value
func (k MovementKind) IsValid() bool {
	switch k {
	case KindIntake, KindAdjustment, KindTransferOut, KindTransferIn,
		KindConsumption, KindConsumptionReversal,
		KindAssemblyIn, KindAssemblyOut, KindDisassemblyIn, KindDisassemblyOut,
		KindCountAdjustment, KindRestock:
		return true
	}
	return false
}

// MovementRecord is one immutable, signed quantity-change row. Records are
// only ever inserted, in the same transaction as the unit mutation they
// describe, so the sum of a unit's deltas always equals its quantity.
type MovementRecord struct {
	shared.BaseEntity
	TenantID              uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID             uuid.UUID       `gorm:"type:uuid;not null;index"`
	UnitID                *uuid.UUID      `gorm:"type:uuid;index"`
	Kind                  MovementKind    `gorm:"type:varchar(32);not null;index"`
	Delta                 decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	QuantityBefore        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	QuantityAfter         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SourceLocationID      *uuid.UUID      `gorm:"type:uuid"`
	DestinationLocationID *uuid.UUID      `gorm:"type:uuid"`
	UnitCost              decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ActorID               uuid.UUID       `gorm:"type:uuid;not null"`
	ReferenceType         string          `gorm:"type:varchar(64);index:idx_movements_reference"`
	ReferenceID           string          `gorm:"type:varchar(128);index:idx_movements_reference"`
	Note                  string          `gorm:"type:text"`
	OccurredAt            time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (MovementRecord) TableName() string {
	return "movement_records"
}

// NewMovementRecord creates a movement row for the given product and delta
func NewMovementRecord(tenantID, productID, actorID uuid.UUID, kind MovementKind, delta decimal.Decimal) *MovementRecord {
	return &MovementRecord{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		ProductID:  productID,
		ActorID:    actorID,
		Kind:       kind,
		Delta:      delta,
		OccurredAt: time.Now(),
	}
}

// WithUnit links the movement to the affected unit and records the
// quantity it moved between
func (m *MovementRecord) WithUnit(unitID uuid.UUID, before, after decimal.Decimal) *MovementRecord {
	m.UnitID = &unitID
	m.QuantityBefore = before
	m.QuantityAfter = after
	return m
}

// WithLocations records source and/or destination locations
func (m *MovementRecord) WithLocations(source, destination *uuid.UUID) *MovementRecord {
	m.SourceLocationID = source
	m.DestinationLocationID = destination
	return m
}

// WithReference links the movement to the originating business document
func (m *MovementRecord) WithReference(refType, refID string) *MovementRecord {
	m.ReferenceType = refType
	m.ReferenceID = refID
	return m
}

// WithCost records the unit cost at the time of the movement
func (m *MovementRecord) WithCost(cost decimal.Decimal) *MovementRecord {
	m.UnitCost = cost
	return m
}

// WithNote attaches a free-text note
func (m *MovementRecord) WithNote(note string) *MovementRecord {
	m.Note = note
	return m
}

// IsIncrease reports whether the movement added stock
func (m *MovementRecord) IsIncrease() bool {
	return m.Delta.IsPositive()
}
