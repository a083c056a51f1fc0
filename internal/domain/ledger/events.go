package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopledger/backend/internal/domain/shared"
)

// Event types for the ledger domain
const (
	EventUnitCreated           = "ledger.unit.created"
	EventCountSessionStarted   = "ledger.count_session.started"
	EventCountSessionCompleted = "ledger.count_session.completed"
)

// UnitCreatedEvent is raised when a new inventory unit enters the ledger
type UnitCreatedEvent struct {
	shared.BaseDomainEvent
	ProductID  uuid.UUID `json:"product_id"`
	LocationID uuid.UUID `json:"location_id"`
	Serial     string    `json:"serial,omitempty"`
}

// NewUnitCreatedEvent creates a UnitCreatedEvent
func NewUnitCreatedEvent(unit *InventoryUnit) *UnitCreatedEvent {
	return &UnitCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventUnitCreated, "InventoryUnit", unit.ID, unit.TenantID),
		ProductID:       unit.ProductID,
		LocationID:      unit.LocationID,
		Serial:          unit.SerialValue(),
	}
}

// CountSessionStartedEvent is raised when a physical count begins
type CountSessionStartedEvent struct {
	shared.BaseDomainEvent
	SessionNumber string     `json:"session_number"`
	LocationID    *uuid.UUID `json:"location_id,omitempty"`
}

// NewCountSessionStartedEvent creates a CountSessionStartedEvent
func NewCountSessionStartedEvent(session *CountSession) *CountSessionStartedEvent {
	return &CountSessionStartedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventCountSessionStarted, "CountSession", session.ID, session.TenantID),
		SessionNumber:   session.SessionNumber,
		LocationID:      session.LocationID,
	}
}

// CountSessionCompletedEvent is raised when a physical count finalizes.
// ProductIDs lists every product whose on-hand quantity the count may have
// corrected, so downstream consumers can refresh derived state per product.
type CountSessionCompletedEvent struct {
	shared.BaseDomainEvent
	SessionNumber    string          `json:"session_number"`
	LineCount        int             `json:"line_count"`
	TotalDiscrepancy decimal.Decimal `json:"total_discrepancy"`
	ProductIDs       []uuid.UUID     `json:"product_ids"`
}

// NewCountSessionCompletedEvent creates a CountSessionCompletedEvent
func NewCountSessionCompletedEvent(session *CountSession) *CountSessionCompletedEvent {
	total := decimal.Zero
	seen := make(map[uuid.UUID]struct{}, len(session.Lines))
	products := make([]uuid.UUID, 0, len(session.Lines))
	for i := range session.Lines {
		if session.Lines[i].HasDiscrepancy() {
			total = total.Add(session.Lines[i].Discrepancy)
		}
		if _, ok := seen[session.Lines[i].ProductID]; !ok {
			seen[session.Lines[i].ProductID] = struct{}{}
			products = append(products, session.Lines[i].ProductID)
		}
	}
	return &CountSessionCompletedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventCountSessionCompleted, "CountSession", session.ID, session.TenantID),
		SessionNumber:    session.SessionNumber,
		LineCount:        len(session.Lines),
		TotalDiscrepancy: total,
		ProductIDs:       products,
	}
}
