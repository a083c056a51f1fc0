package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shopledger/backend/internal/domain/ledger"
	"github.com/shopledger/backend/internal/domain/shared"
)

type reconciliationFixture struct {
	*engineFixture
	service *ReconciliationService
}

func newReconciliationFixture(t *testing.T) *reconciliationFixture {
	t.Helper()
	ef := newEngineFixture(t)
	scope := NewNoOpTransactionScope(ef.units, ef.movements, ef.sessions)
	return &reconciliationFixture{
		engineFixture: ef,
		service:       NewReconciliationService(scope, ef.engine, ef.products, zap.NewNop()),
	}
}

func TestReconciliation_StartSession_AutoPopulates(t *testing.T) {
	f := newReconciliationFixture(t)
	locationID := uuid.New()
	lot := ledger.NewLot(f.tenantID, uuid.New(), locationID, decimal.NewFromFloat(5.00), "new")
	require.NoError(t, lot.Increase(decimal.NewFromInt(10)))
	serialUnit, err := ledger.NewSerializedUnit(f.tenantID, uuid.New(), locationID, "SN1", decimal.Zero, "new")
	require.NoError(t, err)

	f.sessions.On("NextSessionNumber", mock.Anything, f.tenantID).Return("SES-20260831-0001", nil)
	f.units.On("FindAvailableAtLocation", mock.Anything, f.tenantID, locationID).
		Return([]*ledger.InventoryUnit{lot, serialUnit}, nil)
	f.sessions.On("Save", mock.Anything, mock.Anything).Return(nil)

	resp, err := f.service.StartSession(context.Background(), f.tenantID, f.actorID, StartSessionCommand{
		LocationID: &locationID,
		Notes:      "quarterly",
	})
	require.NoError(t, err)

	assert.Equal(t, "SES-20260831-0001", resp.SessionNumber)
	assert.Equal(t, string(ledger.SessionInProgress), resp.Status)
	require.Len(t, resp.Lines, 2)
	assert.True(t, resp.Lines[0].SystemQuantity.Equal(decimal.NewFromInt(10)))
	assert.False(t, resp.Lines[0].Serialized)
	assert.True(t, resp.Lines[1].SystemQuantity.Equal(decimal.NewFromInt(1)))
	assert.True(t, resp.Lines[1].Serialized)
}

func TestReconciliation_StartSession_ExplicitLines(t *testing.T) {
	f := newReconciliationFixture(t)
	product := f.lotProduct()
	locationID := uuid.New()

	f.sessions.On("NextSessionNumber", mock.Anything, f.tenantID).Return("SES-20260831-0002", nil)
	f.products.On("Get", mock.Anything, f.tenantID, product.ID).Return(product, nil)
	f.units.On("QuantityOnHand", mock.Anything, f.tenantID, product.ID, &locationID).
		Return(decimal.NewFromInt(4), nil)
	f.sessions.On("Save", mock.Anything, mock.Anything).Return(nil)

	resp, err := f.service.StartSession(context.Background(), f.tenantID, f.actorID, StartSessionCommand{
		Lines: []SessionLineInput{{ProductID: product.ID, LocationID: locationID}},
	})
	require.NoError(t, err)

	require.Len(t, resp.Lines, 1)
	assert.True(t, resp.Lines[0].SystemQuantity.Equal(decimal.NewFromInt(4)))
	assert.Nil(t, resp.Lines[0].UnitID)
}

func TestReconciliation_StartSession_RequiresLocationOrLines(t *testing.T) {
	f := newReconciliationFixture(t)

	_, err := f.service.StartSession(context.Background(), f.tenantID, f.actorID, StartSessionCommand{})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "BAD_REQUEST", domainErr.Code)
}

func TestReconciliation_RecordCount(t *testing.T) {
	f := newReconciliationFixture(t)
	locationID := uuid.New()
	session := ledger.NewCountSession(f.tenantID, "SES-20260831-0003", &locationID, "")
	line := session.AddLine(uuid.New(), nil, locationID, false, decimal.NewFromInt(10))

	f.sessions.On("FindByID", mock.Anything, f.tenantID, session.ID).Return(session, nil)
	f.sessions.On("SaveWithLock", mock.Anything, session).Return(nil)

	resp, err := f.service.RecordCount(context.Background(), f.tenantID, RecordCountCommand{
		SessionID: session.ID,
		LineID:    line.ID,
		Counted:   decimal.NewFromInt(8),
	})
	require.NoError(t, err)

	assert.True(t, resp.CountedQuantity.Equal(decimal.NewFromInt(8)))
	assert.True(t, resp.Discrepancy.Equal(decimal.NewFromInt(-2)))
}

func TestReconciliation_Finalize_AppliesAdjustmentsAndSkipsSerialized(t *testing.T) {
	f := newReconciliationFixture(t)
	product := f.lotProduct()
	locationID := uuid.New()

	session := ledger.NewCountSession(f.tenantID, "SES-20260831-0004", &locationID, "")
	lotLine := session.AddLine(product.ID, nil, locationID, false, decimal.NewFromInt(10))
	serialLine := session.AddLine(uuid.New(), nil, locationID, true, decimal.NewFromInt(1))
	session.AddLine(uuid.New(), nil, locationID, false, decimal.NewFromInt(3)) // never counted

	_, err := session.RecordCount(lotLine.ID, decimal.NewFromInt(8), "")
	require.NoError(t, err)
	_, err = session.RecordCount(serialLine.ID, decimal.Zero, "missing from shelf")
	require.NoError(t, err)

	lot := ledger.NewLot(f.tenantID, product.ID, locationID, decimal.NewFromFloat(5.00), "new")
	require.NoError(t, lot.Increase(decimal.NewFromInt(10)))

	f.sessions.On("FindByID", mock.Anything, f.tenantID, session.ID).Return(session, nil)
	f.products.On("Get", mock.Anything, f.tenantID, product.ID).Return(product, nil)
	f.locations.On("Get", mock.Anything, f.tenantID, locationID).Return(f.activeLocation("MAIN"), nil)
	f.units.On("FindOldestLot", mock.Anything, f.tenantID, product.ID, locationID).Return(lot, nil)
	f.units.On("SaveWithLock", mock.Anything, lot).Return(nil)
	f.movements.On("Record", mock.Anything, mock.Anything).Return(nil)
	f.sessions.On("SaveWithLock", mock.Anything, session).Return(nil)

	resp, err := f.service.Finalize(context.Background(), f.tenantID, f.actorID, session.ID, "done")
	require.NoError(t, err)

	assert.Equal(t, string(ledger.SessionCompleted), resp.Status)
	assert.True(t, lot.Quantity.Equal(decimal.NewFromInt(8)))
	// Exactly one adjustment movement: the serialized line is skipped and
	// the uncounted line is ignored
	require.Len(t, f.movements.recorded, 1)
	m := f.movements.recorded[0]
	assert.Equal(t, ledger.KindCountAdjustment, m.Kind)
	assert.True(t, m.Delta.Equal(decimal.NewFromInt(-2)))
	assert.Equal(t, RefTypeCountSession, m.ReferenceType)
	assert.Equal(t, "SES-20260831-0004", m.ReferenceID)
	assert.Equal(t, "physical count adjustment", m.Note)
}

func TestReconciliation_Finalize_AdjustmentFailureLeavesSessionInProgress(t *testing.T) {
	f := newReconciliationFixture(t)
	product := f.lotProduct()
	locationID := uuid.New()

	session := ledger.NewCountSession(f.tenantID, "SES-20260831-0005", &locationID, "")
	line := session.AddLine(product.ID, nil, locationID, false, decimal.NewFromInt(10))
	_, err := session.RecordCount(line.ID, decimal.NewFromInt(8), "")
	require.NoError(t, err)

	f.sessions.On("FindByID", mock.Anything, f.tenantID, session.ID).Return(session, nil)
	f.products.On("Get", mock.Anything, f.tenantID, product.ID).Return(product, nil)
	f.locations.On("Get", mock.Anything, f.tenantID, locationID).Return(f.activeLocation("MAIN"), nil)
	f.units.On("FindOldestLot", mock.Anything, f.tenantID, product.ID, locationID).Return(nil, shared.ErrNotFound)

	_, err = f.service.Finalize(context.Background(), f.tenantID, f.actorID, session.ID, "")

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INSUFFICIENT_STOCK", domainErr.Code)
	assert.Equal(t, ledger.SessionInProgress, session.Status, "failed finalize must leave the session open for retry")
}

func TestReconciliation_Finalize_CompletedSessionRejected(t *testing.T) {
	f := newReconciliationFixture(t)
	locationID := uuid.New()
	session := ledger.NewCountSession(f.tenantID, "SES-20260831-0006", &locationID, "")
	require.NoError(t, session.Complete(""))

	f.sessions.On("FindByID", mock.Anything, f.tenantID, session.ID).Return(session, nil)

	_, err := f.service.Finalize(context.Background(), f.tenantID, f.actorID, session.ID, "")

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_STATE", domainErr.Code)
}
