package location

import (
	"context"

	"github.com/google/uuid"

	"github.com/shopledger/backend/internal/domain/shared"
)

// Location is a physical or logical place stock sits in: a store, a bench,
// a repair bay, a van. The ledger treats locations as opaque except for the
// active flag, which gates new stock movements into the location.
type Location struct {
	shared.TenantAggregateRoot
	Code   string `gorm:"type:varchar(64);not null;uniqueIndex:idx_locations_tenant_code"`
	Name   string `gorm:"type:varchar(255);not null"`
	Active bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Location) TableName() string {
	return "locations"
}

// LocationReader is the location contract the ledger consumes
type LocationReader interface {
	Get(ctx context.Context, tenantID, locationID uuid.UUID) (*Location, error)
}
