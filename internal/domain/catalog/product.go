package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopledger/backend/internal/domain/shared"
)

// Product is the catalog view the ledger depends on. Descriptive catalog
// management lives outside this service; the ledger only reads the fields
// that drive stock behavior.
type Product struct {
	shared.TenantAggregateRoot
	SKU             string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_products_tenant_sku"`
	Name            string          `gorm:"type:varchar(255);not null"`
	TracksSerial    bool            `gorm:"not null;default:false"`
	IsComposite     bool            `gorm:"not null;default:false"`
	DefaultUnitCost decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Components      []Component     `gorm:"foreignKey:ParentProductID;references:ID"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// Component is one line of a composite product's bill of materials.
// Position keeps the order stable so assembly consumes components in a
// deterministic sequence.
type Component struct {
	shared.BaseEntity
	ParentProductID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ComponentProductID uuid.UUID       `gorm:"type:uuid;not null"`
	QuantityPerUnit    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Position           int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Component) TableName() string {
	return "product_components"
}

// HasComponents reports whether the product carries a bill of materials
func (p *Product) HasComponents() bool {
	return len(p.Components) > 0
}

// ProductReader is the catalog contract the ledger consumes
type ProductReader interface {
	Get(ctx context.Context, tenantID, productID uuid.UUID) (*Product, error)
}
