package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewMovementRecord(t *testing.T) {
	tenantID := uuid.New()
	productID := uuid.New()
	actorID := uuid.New()
	unitID := uuid.New()
	source := uuid.New()

	m := NewMovementRecord(tenantID, productID, actorID, KindConsumption, decimal.NewFromInt(-3)).
		WithUnit(unitID, decimal.NewFromInt(10), decimal.NewFromInt(7)).
		WithLocations(&source, nil).
		WithReference("sale", "S-1001").
		WithCost(decimal.NewFromFloat(5.00)).
		WithNote("line 2")

	assert.Equal(t, tenantID, m.TenantID)
	assert.Equal(t, KindConsumption, m.Kind)
	assert.True(t, m.Delta.Equal(decimal.NewFromInt(-3)))
	assert.Equal(t, &unitID, m.UnitID)
	assert.True(t, m.QuantityBefore.Equal(decimal.NewFromInt(10)))
	assert.True(t, m.QuantityAfter.Equal(decimal.NewFromInt(7)))
	assert.Equal(t, &source, m.SourceLocationID)
	assert.Nil(t, m.DestinationLocationID)
	assert.Equal(t, "sale", m.ReferenceType)
	assert.Equal(t, "S-1001", m.ReferenceID)
	assert.False(t, m.IsIncrease())
	assert.False(t, m.OccurredAt.IsZero())
}

func TestMovementKind_IsValid(t *testing.T) {
	valid := []MovementKind{
		KindIntake, KindAdjustment, KindTransferOut, KindTransferIn,
		KindConsumption, KindConsumptionReversal,
		KindAssemblyIn, KindAssemblyOut, KindDisassemblyIn, KindDisassemblyOut,
		KindCountAdjustment, KindRestock,
	}
	for _, k := range valid {
		assert.True(t, k.IsValid(), string(k))
	}
	assert.False(t, MovementKind("SHRINKAGE").IsValid())
}
