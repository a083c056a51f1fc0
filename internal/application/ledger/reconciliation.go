package ledger

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopledger/backend/internal/domain/ledger"
	"github.com/shopledger/backend/internal/domain/shared"
)

// ReconciliationService runs physical count sessions: snapshot system
// quantities, collect counted quantities, and drive corrective adjustments
// through the stock engine on finalization.
type ReconciliationService struct {
	scope    TransactionScope
	engine   *StockEngine
	products catalog.ProductReader
	logger   *zap.Logger
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	scope TransactionScope,
	engine *StockEngine,
	products catalog.ProductReader,
	logger *zap.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		scope:    scope,
		engine:   engine,
		products: products,
		logger:   logger,
	}
}

// StartSession begins a count. With a location and no explicit lines, one
// line per AVAILABLE, positive-quantity unit at the location is created.
// Zero-quantity units are not auto-included; supply explicit lines to count
// those. Each line snapshots its system quantity at this moment.
func (s *ReconciliationService) StartSession(ctx context.Context, tenantID, actorID uuid.UUID, cmd StartSessionCommand) (*CountSessionResponse, error) {
	if cmd.LocationID == nil && len(cmd.Lines) == 0 {
		return nil, shared.NewDomainError("BAD_REQUEST", "A target location or explicit lines are required")
	}

	var result *CountSessionResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		number, err := repos.CountSessions().NextSessionNumber(ctx, tenantID)
		if err != nil {
			return err
		}
		session := ledger.NewCountSession(tenantID, number, cmd.LocationID, cmd.Notes)

		if len(cmd.Lines) > 0 {
			if err := s.populateExplicitLines(ctx, repos, tenantID, session, cmd.Lines); err != nil {
				return err
			}
		} else {
			units, err := repos.Units().FindAvailableAtLocation(ctx, tenantID, *cmd.LocationID)
			if err != nil {
				return err
			}
			for _, unit := range units {
				unitID := unit.ID
				session.AddLine(unit.ProductID, &unitID, unit.LocationID, unit.IsSerialized(), unit.Quantity)
			}
		}

		if err := repos.CountSessions().Save(ctx, session); err != nil {
			return err
		}

		s.logger.Info("count session started",
			zap.String("session_number", session.SessionNumber),
			zap.String("tenant_id", tenantID.String()),
			zap.Int("lines", len(session.Lines)),
		)

		resp := ToCountSessionResponse(session, true)
		result = &resp
		return nil
	})
	return result, err
}

func (s *ReconciliationService) populateExplicitLines(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, session *ledger.CountSession, lines []SessionLineInput) error {
	for _, input := range lines {
		if input.UnitID != nil {
			unit, err := repos.Units().FindByID(ctx, tenantID, *input.UnitID)
			if err != nil {
				return err
			}
			unitID := unit.ID
			session.AddLine(unit.ProductID, &unitID, unit.LocationID, unit.IsSerialized(), unit.Quantity)
			continue
		}

		product, err := s.products.Get(ctx, tenantID, input.ProductID)
		if err != nil {
			return err
		}
		locationID := input.LocationID
		onHand, err := repos.Units().QuantityOnHand(ctx, tenantID, input.ProductID, &locationID)
		if err != nil {
			return err
		}
		session.AddLine(input.ProductID, nil, locationID, product.TracksSerial, onHand)
	}
	return nil
}

// RecordCount enters a counted quantity for one line. Allowed only while
// the session is IN_PROGRESS; repeated counts overwrite (last write wins).
func (s *ReconciliationService) RecordCount(ctx context.Context, tenantID uuid.UUID, cmd RecordCountCommand) (*CountLineResponse, error) {
	var result *CountLineResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		session, err := repos.CountSessions().FindByID(ctx, tenantID, cmd.SessionID)
		if err != nil {
			return err
		}
		line, err := session.RecordCount(cmd.LineID, cmd.Counted, cmd.Notes)
		if err != nil {
			return err
		}
		if err := repos.CountSessions().SaveWithLock(ctx, session); err != nil {
			return err
		}
		result = &CountLineResponse{
			ID:              line.ID,
			ProductID:       line.ProductID,
			UnitID:          line.UnitID,
			LocationID:      line.LocationID,
			Serialized:      line.Serialized,
			SystemQuantity:  line.SystemQuantity,
			CountedQuantity: line.CountedQuantity,
			Discrepancy:     line.Discrepancy,
			Notes:           line.Notes,
		}
		return nil
	})
	return result, err
}

// Finalize applies one count adjustment per counted line with a non-zero
// discrepancy and completes the session. All-or-nothing: any failed
// adjustment rolls the whole call back, leaving the session IN_PROGRESS
// for retry. Serialized lines are never auto-adjusted; a missing serial
// needs a human decision, so they are skipped with a warning.
func (s *ReconciliationService) Finalize(ctx context.Context, tenantID, actorID uuid.UUID, sessionID uuid.UUID, notes string) (*CountSessionResponse, error) {
	var result *CountSessionResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		session, err := repos.CountSessions().FindByID(ctx, tenantID, sessionID)
		if err != nil {
			return err
		}
		if session.Status != ledger.SessionInProgress {
			return shared.NewDomainError("INVALID_STATE", "Count session is not in progress")
		}

		for _, line := range session.LinesNeedingAdjustment() {
			if line.Serialized {
				s.logger.Warn("serialized count line skipped, adjust the unit manually",
					zap.String("session_number", session.SessionNumber),
					zap.String("line_id", line.ID.String()),
					zap.String("product_id", line.ProductID.String()),
					zap.String("discrepancy", line.Discrepancy.String()),
				)
				continue
			}

			_, err := s.engine.applyAdjustment(ctx, repos, tenantID, actorID, AdjustStockCommand{
				ProductID:  line.ProductID,
				LocationID: line.LocationID,
				Delta:      line.Discrepancy,
				Reason:     "physical count adjustment",
			}, ledger.KindCountAdjustment, RefTypeCountSession, session.SessionNumber)
			if err != nil {
				return err
			}
		}

		if err := session.Complete(notes); err != nil {
			return err
		}
		if err := repos.CountSessions().SaveWithLock(ctx, session); err != nil {
			return err
		}

		s.logger.Info("count session finalized",
			zap.String("session_number", session.SessionNumber),
			zap.Int("lines", len(session.Lines)),
			zap.Int("counted", session.CountedLines()),
		)

		resp := ToCountSessionResponse(session, true)
		result = &resp
		return nil
	})
	return result, err
}

// GetSession returns a session with its lines
func (s *ReconciliationService) GetSession(ctx context.Context, tenantID, sessionID uuid.UUID) (*CountSessionResponse, error) {
	var result *CountSessionResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		session, err := repos.CountSessions().FindByID(ctx, tenantID, sessionID)
		if err != nil {
			return err
		}
		resp := ToCountSessionResponse(session, true)
		result = &resp
		return nil
	})
	return result, err
}

// ListSessions returns paginated sessions without their lines
func (s *ReconciliationService) ListSessions(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[CountSessionResponse], error) {
	var result shared.Paginated[CountSessionResponse]
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		page, err := repos.CountSessions().List(ctx, tenantID, filter)
		if err != nil {
			return err
		}
		items := make([]CountSessionResponse, 0, len(page.Items))
		for _, session := range page.Items {
			items = append(items, ToCountSessionResponse(session, false))
		}
		result = shared.NewPaginated(items, page.Total, page.Page, page.PageSize)
		return nil
	})
	return result, err
}
