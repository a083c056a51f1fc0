package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopledger/backend/internal/domain/shared"
)

func newTestSession(t *testing.T) *CountSession {
	t.Helper()
	locationID := uuid.New()
	return NewCountSession(uuid.New(), "SES-20260831-0001", &locationID, "quarterly count")
}

func TestNewCountSession(t *testing.T) {
	session := newTestSession(t)

	assert.Equal(t, SessionInProgress, session.Status)
	assert.Empty(t, session.Lines)
	assert.Nil(t, session.CompletedAt)
	assert.False(t, session.StartedAt.IsZero())
}

func TestCountSession_AddLine(t *testing.T) {
	session := newTestSession(t)

	line := session.AddLine(uuid.New(), nil, *session.LocationID, false, decimal.NewFromInt(10))

	assert.Len(t, session.Lines, 1)
	assert.Equal(t, session.ID, line.SessionID)
	assert.True(t, line.SystemQuantity.Equal(decimal.NewFromInt(10)))
	assert.False(t, line.IsCounted())
	assert.Equal(t, 0, line.Position)

	second := session.AddLine(uuid.New(), nil, *session.LocationID, true, decimal.NewFromInt(1))
	assert.Equal(t, 1, second.Position)
}

func TestCountSession_RecordCount(t *testing.T) {
	session := newTestSession(t)
	line := session.AddLine(uuid.New(), nil, *session.LocationID, false, decimal.NewFromInt(10))

	updated, err := session.RecordCount(line.ID, decimal.NewFromInt(8), "shelf 3")
	require.NoError(t, err)

	assert.True(t, updated.CountedQuantity.Equal(decimal.NewFromInt(8)))
	assert.True(t, updated.Discrepancy.Equal(decimal.NewFromInt(-2)))
	assert.Equal(t, "shelf 3", updated.Notes)
	assert.True(t, updated.HasDiscrepancy())
}

func TestCountSession_RecordCount_LastWriteWins(t *testing.T) {
	session := newTestSession(t)
	line := session.AddLine(uuid.New(), nil, *session.LocationID, false, decimal.NewFromInt(10))

	_, err := session.RecordCount(line.ID, decimal.NewFromInt(8), "")
	require.NoError(t, err)
	updated, err := session.RecordCount(line.ID, decimal.NewFromInt(10), "")
	require.NoError(t, err)

	assert.True(t, updated.Discrepancy.IsZero())
	assert.False(t, updated.HasDiscrepancy(), "a matching recount clears the discrepancy")
}

func TestCountSession_RecordCount_Errors(t *testing.T) {
	session := newTestSession(t)
	line := session.AddLine(uuid.New(), nil, *session.LocationID, false, decimal.NewFromInt(5))

	_, err := session.RecordCount(uuid.New(), decimal.NewFromInt(1), "")
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)

	_, err = session.RecordCount(line.ID, decimal.NewFromInt(-1), "")
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "BAD_REQUEST", domainErr.Code)

	require.NoError(t, session.Complete(""))
	_, err = session.RecordCount(line.ID, decimal.NewFromInt(5), "")
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_STATE", domainErr.Code)
}

func TestCountSession_Complete(t *testing.T) {
	session := newTestSession(t)

	require.NoError(t, session.Complete("all shelves checked"))
	assert.Equal(t, SessionCompleted, session.Status)
	require.NotNil(t, session.CompletedAt)
	assert.Contains(t, session.Notes, "all shelves checked")

	err := session.Complete("")
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_STATE", domainErr.Code)
}

func TestCountSession_LinesNeedingAdjustment(t *testing.T) {
	session := newTestSession(t)
	short := session.AddLine(uuid.New(), nil, *session.LocationID, false, decimal.NewFromInt(10))
	exact := session.AddLine(uuid.New(), nil, *session.LocationID, false, decimal.NewFromInt(4))
	session.AddLine(uuid.New(), nil, *session.LocationID, false, decimal.NewFromInt(2)) // never counted

	_, err := session.RecordCount(short.ID, decimal.NewFromInt(7), "")
	require.NoError(t, err)
	_, err = session.RecordCount(exact.ID, decimal.NewFromInt(4), "")
	require.NoError(t, err)

	lines := session.LinesNeedingAdjustment()
	require.Len(t, lines, 1)
	assert.Equal(t, short.ID, lines[0].ID)
	assert.True(t, lines[0].Discrepancy.Equal(decimal.NewFromInt(-3)))

	assert.Equal(t, 2, session.CountedLines())
}
