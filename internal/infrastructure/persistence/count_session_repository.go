package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopledger/backend/internal/domain/ledger"
	"github.com/shopledger/backend/internal/domain/shared"
)

// GormCountSessionRepository implements ledger.CountSessionRepository using GORM
type GormCountSessionRepository struct {
	db     *gorm.DB
	outbox shared.OutboxEventSaver
}

// NewGormCountSessionRepository creates a new GormCountSessionRepository
func NewGormCountSessionRepository(db *gorm.DB) *GormCountSessionRepository {
	return &GormCountSessionRepository{db: db}
}

// SetOutboxEventSaver makes the repository write the session's domain
// events to the outbox in the same transaction as the session rows
func (r *GormCountSessionRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outbox = saver
}

func (r *GormCountSessionRepository) flushEvents(ctx context.Context, session *ledger.CountSession) error {
	if r.outbox == nil {
		return nil
	}
	events := session.GetDomainEvents()
	if len(events) == 0 {
		return nil
	}
	if err := r.outbox.SaveEvents(ctx, r.db, events...); err != nil {
		return err
	}
	session.ClearDomainEvents()
	return nil
}

// FindByID finds a session with its lines in counting order
func (r *GormCountSessionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ledger.CountSession, error) {
	var session ledger.CountSession
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// Save creates or updates a session together with its lines
func (r *GormCountSessionRepository) Save(ctx context.Context, session *ledger.CountSession) error {
	if err := r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(session).Error; err != nil {
		return err
	}
	return r.flushEvents(ctx, session)
}

// SaveWithLock updates the session guarded by its version, then upserts the
// lines. Line rows are only ever written through their session, so the
// session version covers them.
func (r *GormCountSessionRepository) SaveWithLock(ctx context.Context, session *ledger.CountSession) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&ledger.CountSession{}).
		Where("id = ? AND version = ?", session.ID, session.Version).
		Updates(map[string]interface{}{
			"status":       session.Status,
			"notes":        session.Notes,
			"completed_at": session.CompletedAt,
			"version":      session.Version + 1,
			"updated_at":   now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	session.UpdatedAt = now
	session.IncrementVersion()

	for i := range session.Lines {
		if err := r.db.WithContext(ctx).Save(&session.Lines[i]).Error; err != nil {
			return err
		}
	}
	return r.flushEvents(ctx, session)
}

// List returns paginated sessions, newest first, without their lines
func (r *GormCountSessionRepository) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[*ledger.CountSession], error) {
	query := r.db.WithContext(ctx).
		Model(&ledger.CountSession{}).
		Where("tenant_id = ?", tenantID)

	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if filter.Search != "" {
		query = query.Where("LOWER(session_number) LIKE LOWER(?)", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return shared.Paginated[*ledger.CountSession]{}, err
	}

	var sessions []*ledger.CountSession
	if err := query.
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&sessions).Error; err != nil {
		return shared.Paginated[*ledger.CountSession]{}, err
	}

	return shared.NewPaginated(sessions, total, filter.Page, filter.PageSize), nil
}

// NextSessionNumber allocates the next SES-YYYYMMDD-NNNN number for the
// tenant. Callers run inside the transaction that saves the session, so a
// concurrent allocation of the same number surfaces as a unique index
// violation rather than a silent duplicate.
func (r *GormCountSessionRepository) NextSessionNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	prefix := fmt.Sprintf("SES-%s-", time.Now().Format("20060102"))

	// Longer numbers sort first so SES-...-10000 outranks SES-...-9999;
	// a plain string sort would return the shorter one
	var last ledger.CountSession
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND session_number LIKE ?", tenantID, prefix+"%").
		Order("LENGTH(session_number) DESC, session_number DESC").
		First(&last).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return prefix + "0001", nil
		}
		return "", err
	}

	seq, err := strconv.Atoi(strings.TrimPrefix(last.SessionNumber, prefix))
	if err != nil {
		return "", fmt.Errorf("malformed session number %q: %w", last.SessionNumber, err)
	}
	return fmt.Sprintf("%s%04d", prefix, seq+1), nil
}

var _ ledger.CountSessionRepository = (*GormCountSessionRepository)(nil)
