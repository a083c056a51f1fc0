package ledger

import (
	"context"

	"github.com/shopledger/backend/internal/domain/ledger"
)

// TransactionScope provides transactional access to ledger repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically. Outer business operations (sale finalization, repair
// completion) supply their own scope so ledger writes join their
// transaction; standalone callers let the engine open one.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all ledger repositories
// within a transaction. All repositories returned share the same
// underlying database transaction.
//
// Aggregate boundary notes:
//   - Units: repository for the InventoryUnit aggregate root; all quantity
//     and status changes go through it.
//   - Movements: append-only movement log repository. Rows are written in
//     the same transaction as the unit mutation they describe.
//   - CountSessions: repository for the CountSession aggregate; lines are
//     child entities persisted with the root.
type TransactionalRepositories interface {
	// Units returns the inventory unit repository scoped to the current transaction
	Units() ledger.UnitRepository
	// Movements returns the movement log repository scoped to the current transaction
	Movements() ledger.MovementRepository
	// CountSessions returns the count session repository scoped to the current transaction
	CountSessions() ledger.CountSessionRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for tests and for stores without transaction support.
type NoOpTransactionScope struct {
	units         ledger.UnitRepository
	movements     ledger.MovementRepository
	countSessions ledger.CountSessionRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	units ledger.UnitRepository,
	movements ledger.MovementRepository,
	countSessions ledger.CountSessionRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		units:         units,
		movements:     movements,
		countSessions: countSessions,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Units returns the inventory unit repository.
func (s *NoOpTransactionScope) Units() ledger.UnitRepository {
	return s.units
}

// Movements returns the movement log repository.
func (s *NoOpTransactionScope) Movements() ledger.MovementRepository {
	return s.movements
}

// CountSessions returns the count session repository.
func (s *NoOpTransactionScope) CountSessions() ledger.CountSessionRepository {
	return s.countSessions
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
