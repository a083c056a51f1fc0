package persistence

import (
	"context"

	"gorm.io/gorm"

	appledger "github.com/shopledger/backend/internal/application/ledger"
	"github.com/shopledger/backend/internal/domain/ledger"
	"github.com/shopledger/backend/internal/domain/shared"
)

// GormTransactionScope implements the application layer's TransactionScope
// using GORM transactions, giving stock operations all-or-nothing semantics
// across units, movements and count sessions.
type GormTransactionScope struct {
	db     *gorm.DB
	outbox shared.OutboxEventSaver
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// SetOutboxEventSaver propagates an outbox saver to every repository handed
// out inside a transaction, so domain events commit with the rows that
// raised them
func (s *GormTransactionScope) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	s.outbox = saver
}

// Execute runs fn inside a database transaction. An error from fn rolls the
// transaction back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appledger.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx, outbox: s.outbox})
	})
}

type gormTransactionalRepositories struct {
	tx     *gorm.DB
	outbox shared.OutboxEventSaver
}

// Units returns the unit repository scoped to the current transaction
func (r *gormTransactionalRepositories) Units() ledger.UnitRepository {
	repo := NewGormUnitRepository(r.tx)
	if r.outbox != nil {
		repo.SetOutboxEventSaver(r.outbox)
	}
	return repo
}

// Movements returns the movement repository scoped to the current transaction
func (r *gormTransactionalRepositories) Movements() ledger.MovementRepository {
	return NewGormMovementRepository(r.tx)
}

// CountSessions returns the count session repository scoped to the current transaction
func (r *gormTransactionalRepositories) CountSessions() ledger.CountSessionRepository {
	repo := NewGormCountSessionRepository(r.tx)
	if r.outbox != nil {
		repo.SetOutboxEventSaver(r.outbox)
	}
	return repo
}

var _ appledger.TransactionScope = (*GormTransactionScope)(nil)
var _ appledger.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
