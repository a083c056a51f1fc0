package event

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shopledger/backend/internal/domain/shared"
)

type stubIdempotencyStore struct {
	seen map[string]bool
	err  error
}

func newStubIdempotencyStore() *stubIdempotencyStore {
	return &stubIdempotencyStore{seen: make(map[string]bool)}
}

func (s *stubIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if s.seen[eventID] {
		return false, nil
	}
	s.seen[eventID] = true
	return true, nil
}

func (s *stubIdempotencyStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	return s.seen[eventID], s.err
}

func (s *stubIdempotencyStore) Close() error { return nil }

func TestIdempotentHandler_SkipsDuplicate(t *testing.T) {
	inner := &recordingHandler{types: []string{"ledger.unit.created"}}
	h := NewIdempotentHandler(inner, newStubIdempotencyStore(), shared.DefaultIdempotencyConfig(), zap.NewNop())

	evt := newTestEvent("ledger.unit.created")
	require.NoError(t, h.Handle(context.Background(), evt))
	require.NoError(t, h.Handle(context.Background(), evt))

	assert.Len(t, inner.received, 1)
}

func TestIdempotentHandler_Disabled(t *testing.T) {
	inner := &recordingHandler{types: []string{"ledger.unit.created"}}
	config := shared.IdempotencyConfig{Enabled: false}
	h := NewIdempotentHandler(inner, newStubIdempotencyStore(), config, zap.NewNop())

	evt := newTestEvent("ledger.unit.created")
	require.NoError(t, h.Handle(context.Background(), evt))
	require.NoError(t, h.Handle(context.Background(), evt))

	assert.Len(t, inner.received, 2)
}

func TestIdempotentHandler_StoreErrorProcessesAnyway(t *testing.T) {
	inner := &recordingHandler{types: []string{"ledger.unit.created"}}
	store := newStubIdempotencyStore()
	store.err = context.DeadlineExceeded
	h := NewIdempotentHandler(inner, store, shared.DefaultIdempotencyConfig(), zap.NewNop())

	require.NoError(t, h.Handle(context.Background(), newTestEvent("ledger.unit.created")))

	assert.Len(t, inner.received, 1)
}

func TestIdempotentHandler_ExposesWrappedEventTypes(t *testing.T) {
	inner := &recordingHandler{types: []string{"ledger.unit.created", "ledger.count_session.completed"}}
	h := NewIdempotentHandler(inner, newStubIdempotencyStore(), shared.DefaultIdempotencyConfig(), zap.NewNop())

	assert.Equal(t, inner.types, h.EventTypes())
}
