package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopledger/backend/internal/domain/shared"
)

// SessionStatus represents the state of a count session
type SessionStatus string

const (
	SessionInProgress SessionStatus = "IN_PROGRESS"
	SessionCompleted  SessionStatus = "COMPLETED"
)

// CountSession is one physical-count workflow instance. System quantities
// are snapshotted per line when the session starts; counted quantities are
// entered afterwards and finalization drives the corrective adjustments.
type CountSession struct {
	shared.TenantAggregateRoot
	// Unique per tenant; the composite constraint lives in the schema
	// migration because it spans the embedded tenant column.
	SessionNumber string        `gorm:"type:varchar(32);not null;index:idx_count_sessions_number"`
	LocationID    *uuid.UUID    `gorm:"type:uuid;index"`
	Status        SessionStatus `gorm:"type:varchar(32);not null;default:'IN_PROGRESS'"`
	Notes         string        `gorm:"type:text"`
	StartedAt     time.Time     `gorm:"not null"`
	CompletedAt   *time.Time
	Lines         []CountLine `gorm:"foreignKey:SessionID;references:ID"`
}

// TableName returns the table name for GORM
func (CountSession) TableName() string {
	return "count_sessions"
}

// CountLine is one product (or one specific unit) within a count session.
// SystemQuantity is the snapshot taken at session start; CountedQuantity
// stays nil until someone enters a count.
type CountLine struct {
	shared.BaseEntity
	SessionID       uuid.UUID        `gorm:"type:uuid;not null;index"`
	ProductID       uuid.UUID        `gorm:"type:uuid;not null"`
	UnitID          *uuid.UUID       `gorm:"type:uuid"`
	LocationID      uuid.UUID        `gorm:"type:uuid;not null"`
	Serialized      bool             `gorm:"not null;default:false"`
	SystemQuantity  decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	CountedQuantity *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Discrepancy     decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	Notes           string           `gorm:"type:text"`
	Position        int              `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (CountLine) TableName() string {
	return "count_lines"
}

// HasDiscrepancy reports whether the line was counted and disagrees with
// the system quantity
func (l *CountLine) HasDiscrepancy() bool {
	return l.CountedQuantity != nil && !l.Discrepancy.IsZero()
}

// IsCounted reports whether a count has been entered for this line
func (l *CountLine) IsCounted() bool {
	return l.CountedQuantity != nil
}

// NewCountSession creates a session in IN_PROGRESS with no lines
func NewCountSession(tenantID uuid.UUID, sessionNumber string, locationID *uuid.UUID, notes string) *CountSession {
	session := &CountSession{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SessionNumber:       sessionNumber,
		LocationID:          locationID,
		Status:              SessionInProgress,
		Notes:               notes,
		StartedAt:           time.Now(),
	}
	session.AddDomainEvent(NewCountSessionStartedEvent(session))
	return session
}

// AddLine appends a line snapshotting the given system quantity
func (s *CountSession) AddLine(productID uuid.UUID, unitID *uuid.UUID, locationID uuid.UUID, serialized bool, systemQuantity decimal.Decimal) *CountLine {
	line := CountLine{
		BaseEntity:     shared.NewBaseEntity(),
		SessionID:      s.ID,
		ProductID:      productID,
		UnitID:         unitID,
		LocationID:     locationID,
		Serialized:     serialized,
		SystemQuantity: systemQuantity,
		Position:       len(s.Lines),
	}
	s.Lines = append(s.Lines, line)
	return &s.Lines[len(s.Lines)-1]
}

// RecordCount sets the counted quantity on a line and recomputes its
// discrepancy. Last write wins until finalization.
func (s *CountSession) RecordCount(lineID uuid.UUID, counted decimal.Decimal, notes string) (*CountLine, error) {
	if s.Status != SessionInProgress {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Count session %s is %s, counts can only be recorded while in progress", s.SessionNumber, s.Status))
	}
	if counted.IsNegative() {
		return nil, shared.NewDomainError("BAD_REQUEST", "Counted quantity cannot be negative")
	}
	for i := range s.Lines {
		line := &s.Lines[i]
		if line.ID == lineID {
			line.CountedQuantity = &counted
			line.Discrepancy = counted.Sub(line.SystemQuantity)
			if notes != "" {
				line.Notes = notes
			}
			line.UpdatedAt = time.Now()
			return line, nil
		}
	}
	return nil, shared.NewDomainError("NOT_FOUND", "Count line not found in session")
}

// Complete transitions the session to COMPLETED. Callers apply the line
// adjustments first, in the same transaction, so a failed adjustment rolls
// the transition back too.
func (s *CountSession) Complete(notes string) error {
	if s.Status != SessionInProgress {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Count session %s is already %s", s.SessionNumber, s.Status))
	}
	s.Status = SessionCompleted
	now := time.Now()
	s.CompletedAt = &now
	if notes != "" {
		if s.Notes != "" {
			s.Notes += "\n"
		}
		s.Notes += notes
	}
	s.AddDomainEvent(NewCountSessionCompletedEvent(s))
	return nil
}

// LinesNeedingAdjustment returns the counted lines whose discrepancy is
// non-zero, in position order
func (s *CountSession) LinesNeedingAdjustment() []*CountLine {
	var lines []*CountLine
	for i := range s.Lines {
		if s.Lines[i].HasDiscrepancy() {
			lines = append(lines, &s.Lines[i])
		}
	}
	return lines
}

// CountedLines returns how many lines have a recorded count
func (s *CountSession) CountedLines() int {
	n := 0
	for i := range s.Lines {
		if s.Lines[i].IsCounted() {
			n++
		}
	}
	return n
}
