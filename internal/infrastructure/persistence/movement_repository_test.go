package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopledger/backend/internal/domain/ledger"
)

func TestMovementRepository_FindByReference(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormMovementRepository(db)
	tenantID := uuid.New()
	productID := uuid.New()
	actorID := uuid.New()

	second := ledger.NewMovementRecord(tenantID, productID, actorID, ledger.KindConsumption, decimal.NewFromInt(-2)).
		WithReference("sale", "SO-100")
	second.OccurredAt = time.Now()
	first := ledger.NewMovementRecord(tenantID, productID, actorID, ledger.KindConsumption, decimal.NewFromInt(-1)).
		WithReference("sale", "SO-100")
	first.OccurredAt = time.Now().Add(-time.Minute)
	other := ledger.NewMovementRecord(tenantID, productID, actorID, ledger.KindConsumption, decimal.NewFromInt(-5)).
		WithReference("sale", "SO-200")

	for _, m := range []*ledger.MovementRecord{second, first, other} {
		require.NoError(t, repo.Record(context.Background(), m))
	}

	found, err := repo.FindByReference(context.Background(), tenantID, ledger.KindConsumption, "sale", "SO-100")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, first.ID, found[0].ID, "oldest first")
	assert.Equal(t, second.ID, found[1].ID)

	none, err := repo.FindByReference(context.Background(), tenantID, ledger.KindConsumptionReversal, "sale", "SO-100")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMovementRepository_List(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormMovementRepository(db)
	tenantID := uuid.New()
	productID := uuid.New()
	actorID := uuid.New()
	locationID := uuid.New()

	intake := ledger.NewMovementRecord(tenantID, productID, actorID, ledger.KindIntake, decimal.NewFromInt(10)).
		WithLocations(nil, &locationID)
	intake.OccurredAt = time.Now().Add(-time.Hour)
	out := ledger.NewMovementRecord(tenantID, productID, actorID, ledger.KindTransferOut, decimal.NewFromInt(-3)).
		WithLocations(&locationID, nil)
	unrelated := ledger.NewMovementRecord(tenantID, uuid.New(), actorID, ledger.KindIntake, decimal.NewFromInt(1))

	for _, m := range []*ledger.MovementRecord{intake, out, unrelated} {
		require.NoError(t, repo.Record(context.Background(), m))
	}

	page, err := repo.List(context.Background(), tenantID, ledger.MovementFilter{
		ProductID: &productID,
		Page:      1,
		PageSize:  10,
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, page.Total)
	assert.Equal(t, out.ID, page.Items[0].ID, "newest first")

	// Location filter matches source or destination
	page, err = repo.List(context.Background(), tenantID, ledger.MovementFilter{
		LocationID: &locationID,
		Page:       1,
		PageSize:   10,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)

	kind := ledger.KindIntake
	page, err = repo.List(context.Background(), tenantID, ledger.MovementFilter{
		Kind:     &kind,
		Page:     1,
		PageSize: 10,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)

	from := time.Now().Add(-30 * time.Minute)
	page, err = repo.List(context.Background(), tenantID, ledger.MovementFilter{
		ProductID: &productID,
		From:      &from,
		Page:      1,
		PageSize:  10,
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.Total)
	assert.Equal(t, out.ID, page.Items[0].ID)
}
