package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopledger/backend/internal/domain/ledger"
)

// AddStockCommand adds lot-based stock for a non-serialized product
type AddStockCommand struct {
	ProductID  uuid.UUID
	LocationID uuid.UUID
	Quantity   decimal.Decimal
	UnitCost   decimal.Decimal
	Condition  string
	Note       string
}

// AddSerializedUnitCommand brings one serial-tracked item into stock
type AddSerializedUnitCommand struct {
	ProductID  uuid.UUID
	LocationID uuid.UUID
	Serial     string
	UnitCost   decimal.Decimal
	Condition  string
	Note       string
}

// AdjustStockCommand applies a signed manual correction to lot stock
type AdjustStockCommand struct {
	ProductID  uuid.UUID
	LocationID uuid.UUID
	Delta      decimal.Decimal
	Reason     string
}

// TransferStockCommand moves stock between locations. Exactly one of
// Quantity (lot path) or Serial (serialized path) must be set.
type TransferStockCommand struct {
	ProductID uuid.UUID
	From      uuid.UUID
	To        uuid.UUID
	Quantity  *decimal.Decimal
	Serial    *string
	Note      string
}

// ConsumeStockCommand commits stock for a finalized sale or repair line.
// UnitID is required for serialized products and optional for lots (the
// engine auto-selects the oldest qualifying lot when omitted).
type ConsumeStockCommand struct {
	ProductID     uuid.UUID
	LocationID    uuid.UUID
	Quantity      decimal.Decimal
	UnitID        *uuid.UUID
	TargetStatus  ledger.UnitStatus
	ReferenceType string
	ReferenceID   string
}

// ReverseConsumptionCommand restores every unit consumed under a reference
type ReverseConsumptionCommand struct {
	ReferenceType string
	ReferenceID   string
	Reason        string
}

// RestockCommand reintroduces previously consumed goods, possibly at a
// different condition or location than the origin
type RestockCommand struct {
	UnitID                uuid.UUID
	Quantity              decimal.Decimal
	NewCondition          string
	DestinationLocationID uuid.UUID
	ReferenceType         string
	ReferenceID           string
}

// AssembleCommand builds composite units from component stock
type AssembleCommand struct {
	ProductID                 uuid.UUID
	Quantity                  decimal.Decimal
	TargetLocationID          uuid.UUID
	ComponentSourceLocationID uuid.UUID
	ReferenceID               string
}

// DisassembleCommand breaks composite units back into component stock
type DisassembleCommand struct {
	UnitID                         uuid.UUID
	Quantity                       decimal.Decimal
	ComponentDestinationLocationID uuid.UUID
	ReferenceID                    string
}

// RepairPartCommand consumes a part against a repair line. Quantity
// defaults to 1 when omitted.
type RepairPartCommand struct {
	ProductID    uuid.UUID
	LocationID   uuid.UUID
	UnitID       *uuid.UUID
	Quantity     *decimal.Decimal
	RepairLineID string
}

// StartSessionCommand begins a physical count. When LocationID is set and
// no explicit lines are given, lines are auto-populated from current stock.
type StartSessionCommand struct {
	LocationID *uuid.UUID
	Notes      string
	Lines      []SessionLineInput
}

// SessionLineInput is one explicitly requested count line
type SessionLineInput struct {
	ProductID  uuid.UUID
	UnitID     *uuid.UUID
	LocationID uuid.UUID
}

// RecordCountCommand enters a counted quantity for a session line
type RecordCountCommand struct {
	SessionID uuid.UUID
	LineID    uuid.UUID
	Counted   decimal.Decimal
	Notes     string
}

// UnitResponse is the read shape of an inventory unit
type UnitResponse struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	LocationID    uuid.UUID       `json:"location_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	Condition     string          `json:"condition"`
	Status        string          `json:"status"`
	Serial        string          `json:"serial,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ToUnitResponse converts an inventory unit to its response shape
func ToUnitResponse(unit *ledger.InventoryUnit) UnitResponse {
	return UnitResponse{
		ID:         unit.ID,
		ProductID:  unit.ProductID,
		LocationID: unit.LocationID,
		Quantity:   unit.Quantity,
		UnitCost:   unit.UnitCost,
		Condition:  unit.Condition,
		Status:     string(unit.Status),
		Serial:     unit.SerialValue(),
		Notes:      unit.Notes,
		Version:    unit.Version,
		CreatedAt:  unit.CreatedAt,
		UpdatedAt:  unit.UpdatedAt,
	}
}

// ConsumptionResult reports which unit was consumed and at what cost, so
// the caller can record cost-of-goods on its own ledger line
type ConsumptionResult struct {
	UnitID   uuid.UUID       `json:"unit_id"`
	UnitCost decimal.Decimal `json:"unit_cost"`
	Quantity decimal.Decimal `json:"quantity"`
}

// TransferResult reports both sides of a transfer
type TransferResult struct {
	Source      UnitResponse `json:"source"`
	Destination UnitResponse `json:"destination"`
}

// MovementResponse is the read shape of a movement record
type MovementResponse struct {
	ID                    uuid.UUID       `json:"id"`
	ProductID             uuid.UUID       `json:"product_id"`
	UnitID                *uuid.UUID      `json:"unit_id,omitempty"`
	Kind                  string          `json:"kind"`
	Delta                 decimal.Decimal `json:"delta"`
	QuantityBefore        decimal.Decimal `json:"quantity_before"`
	QuantityAfter         decimal.Decimal `json:"quantity_after"`
	SourceLocationID      *uuid.UUID      `json:"source_location_id,omitempty"`
	DestinationLocationID *uuid.UUID      `json:"destination_location_id,omitempty"`
	UnitCost              decimal.Decimal `json:"unit_cost"`
	ActorID               uuid.UUID       `json:"actor_id"`
	ReferenceType         string          `json:"reference_type,omitempty"`
	ReferenceID           string          `json:"reference_id,omitempty"`
	Note                  string          `json:"note,omitempty"`
	OccurredAt            time.Time       `json:"occurred_at"`
}

// ToMovementResponse converts a movement record to its response shape
func ToMovementResponse(m *ledger.MovementRecord) MovementResponse {
	return MovementResponse{
		ID:                    m.ID,
		ProductID:             m.ProductID,
		UnitID:                m.UnitID,
		Kind:                  string(m.Kind),
		Delta:                 m.Delta,
		QuantityBefore:        m.QuantityBefore,
		QuantityAfter:         m.QuantityAfter,
		SourceLocationID:      m.SourceLocationID,
		DestinationLocationID: m.DestinationLocationID,
		UnitCost:              m.UnitCost,
		ActorID:               m.ActorID,
		ReferenceType:         m.ReferenceType,
		ReferenceID:           m.ReferenceID,
		Note:                  m.Note,
		OccurredAt:            m.OccurredAt,
	}
}

// CountLineResponse is the read shape of a count line
type CountLineResponse struct {
	ID              uuid.UUID        `json:"id"`
	ProductID       uuid.UUID        `json:"product_id"`
	UnitID          *uuid.UUID       `json:"unit_id,omitempty"`
	LocationID      uuid.UUID        `json:"location_id"`
	Serialized      bool             `json:"serialized"`
	SystemQuantity  decimal.Decimal  `json:"system_quantity"`
	CountedQuantity *decimal.Decimal `json:"counted_quantity,omitempty"`
	Discrepancy     decimal.Decimal  `json:"discrepancy"`
	Notes           string           `json:"notes,omitempty"`
}

// CountSessionResponse is the read shape of a count session
type CountSessionResponse struct {
	ID             uuid.UUID           `json:"id"`
	SessionNumber  string              `json:"session_number"`
	LocationID     *uuid.UUID          `json:"location_id,omitempty"`
	Status         string              `json:"status"`
	Notes          string              `json:"notes,omitempty"`
	StartedAt      time.Time           `json:"started_at"`
	CompletedAt    *time.Time          `json:"completed_at,omitempty"`
	TotalLines     int                 `json:"total_lines"`
	CountedLines   int                 `json:"counted_lines"`
	Lines          []CountLineResponse `json:"lines,omitempty"`
}

// ToCountSessionResponse converts a session to its response shape
func ToCountSessionResponse(session *ledger.CountSession, withLines bool) CountSessionResponse {
	resp := CountSessionResponse{
		ID:            session.ID,
		SessionNumber: session.SessionNumber,
		LocationID:    session.LocationID,
		Status:        string(session.Status),
		Notes:         session.Notes,
		StartedAt:     session.StartedAt,
		CompletedAt:   session.CompletedAt,
		TotalLines:    len(session.Lines),
		CountedLines:  session.CountedLines(),
	}
	if withLines {
		resp.Lines = make([]CountLineResponse, 0, len(session.Lines))
		for i := range session.Lines {
			line := &session.Lines[i]
			resp.Lines = append(resp.Lines, CountLineResponse{
				ID:              line.ID,
				ProductID:       line.ProductID,
				UnitID:          line.UnitID,
				LocationID:      line.LocationID,
				Serialized:      line.Serialized,
				SystemQuantity:  line.SystemQuantity,
				CountedQuantity: line.CountedQuantity,
				Discrepancy:     line.Discrepancy,
				Notes:           line.Notes,
			})
		}
	}
	return resp
}
