package event

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/shopledger/backend/internal/domain/ledger"
	"github.com/shopledger/backend/internal/domain/shared"
)

// EventFactory produces an empty event instance for deserialization
type EventFactory func() shared.DomainEvent

// EventSerializer converts domain events to and from their JSON outbox
// payloads. Every event type that passes through the outbox must be
// registered with a factory, or the processor cannot replay it.
type EventSerializer struct {
	mu        sync.RWMutex
	factories map[string]EventFactory
}

// NewEventSerializer creates a new event serializer
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{
		factories: make(map[string]EventFactory),
	}
}

// Register binds an event type name to a factory for its concrete type
func (s *EventSerializer) Register(eventType string, factory EventFactory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.factories[eventType] = factory
}

// Serialize encodes a domain event as JSON
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	return json.Marshal(event)
}

// Deserialize decodes an outbox payload back into its concrete event type
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	factory, ok := s.factories[eventType]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	event := factory()
	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s event: %w", eventType, err)
	}
	return event, nil
}

// IsRegistered reports whether an event type has a factory
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.factories[eventType]
	return ok
}

// RegisterLedgerEvents registers every ledger domain event type
func RegisterLedgerEvents(s *EventSerializer) {
	s.Register(ledger.EventUnitCreated, func() shared.DomainEvent { return &ledger.UnitCreatedEvent{} })
	s.Register(ledger.EventCountSessionStarted, func() shared.DomainEvent { return &ledger.CountSessionStartedEvent{} })
	s.Register(ledger.EventCountSessionCompleted, func() shared.DomainEvent { return &ledger.CountSessionCompletedEvent{} })
}
