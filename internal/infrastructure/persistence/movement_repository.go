package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopledger/backend/internal/domain/ledger"
	"github.com/shopledger/backend/internal/domain/shared"
)

// GormMovementRepository implements ledger.MovementRepository using GORM.
// The movement log is append-only: records are created, never updated or
// deleted.
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Record appends a movement to the log
func (r *GormMovementRepository) Record(ctx context.Context, movement *ledger.MovementRecord) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

// FindByReference returns movements of one kind carrying the given reference,
// oldest first
func (r *GormMovementRepository) FindByReference(ctx context.Context, tenantID uuid.UUID, kind ledger.MovementKind, refType, refID string) ([]*ledger.MovementRecord, error) {
	var movements []*ledger.MovementRecord
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND kind = ? AND reference_type = ? AND reference_id = ?",
			tenantID, kind, refType, refID).
		Order("occurred_at ASC").
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// List returns filtered, paginated movement history, newest first
func (r *GormMovementRepository) List(ctx context.Context, tenantID uuid.UUID, filter ledger.MovementFilter) (shared.Paginated[*ledger.MovementRecord], error) {
	query := r.db.WithContext(ctx).
		Model(&ledger.MovementRecord{}).
		Where("tenant_id = ?", tenantID)

	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.UnitID != nil {
		query = query.Where("unit_id = ?", *filter.UnitID)
	}
	if filter.LocationID != nil {
		query = query.Where(
			r.db.Where("source_location_id = ?", *filter.LocationID).
				Or("destination_location_id = ?", *filter.LocationID),
		)
	}
	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}
	if filter.ReferenceType != "" {
		query = query.Where("reference_type = ?", filter.ReferenceType)
	}
	if filter.ReferenceID != "" {
		query = query.Where("reference_id = ?", filter.ReferenceID)
	}
	if filter.From != nil {
		query = query.Where("occurred_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("occurred_at < ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return shared.Paginated[*ledger.MovementRecord]{}, err
	}

	var movements []*ledger.MovementRecord
	if err := query.
		Order("occurred_at DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&movements).Error; err != nil {
		return shared.Paginated[*ledger.MovementRecord]{}, err
	}

	return shared.NewPaginated(movements, total, filter.Page, filter.PageSize), nil
}

var _ ledger.MovementRepository = (*GormMovementRepository)(nil)
