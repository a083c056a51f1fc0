package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ledgerapp "github.com/shopledger/backend/internal/application/ledger"
	"github.com/shopledger/backend/internal/domain/ledger"
	"github.com/shopledger/backend/internal/domain/shared"
)

// QueryReader is the read surface the query handler serves
type QueryReader interface {
	QuantityOnHand(ctx context.Context, tenantID, productID uuid.UUID, locationID *uuid.UUID) (decimal.Decimal, error)
	GetUnit(ctx context.Context, tenantID, unitID uuid.UUID) (*ledgerapp.UnitResponse, error)
	GetUnitBySerial(ctx context.Context, tenantID uuid.UUID, serial string) (*ledgerapp.UnitResponse, error)
	ListUnits(ctx context.Context, tenantID uuid.UUID, filter ledger.UnitFilter) (shared.Paginated[ledgerapp.UnitResponse], error)
	ListMovements(ctx context.Context, tenantID uuid.UUID, filter ledger.MovementFilter) (shared.Paginated[ledgerapp.MovementResponse], error)
}

// QueryHandler handles the read-only ledger API endpoints
type QueryHandler struct {
	BaseHandler
	queries QueryReader
}

// NewQueryHandler creates a new QueryHandler
func NewQueryHandler(queries QueryReader) *QueryHandler {
	return &QueryHandler{queries: queries}
}

// RegisterRoutes registers the read-only routes
func (h *QueryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/products/:id/quantity", h.QuantityOnHand)
	units := rg.Group("/units")
	units.GET("", h.ListUnits)
	units.GET("/:id", h.GetUnit)
	units.GET("/by-serial/:serial", h.GetUnitBySerial)
	rg.GET("/movements", h.ListMovements)
}

// QuantityResponse is the on-hand quantity read shape
type QuantityResponse struct {
	ProductID  uuid.UUID       `json:"product_id"`
	LocationID *uuid.UUID      `json:"location_id,omitempty"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// QuantityOnHand returns the AVAILABLE quantity of a product, optionally
// narrowed by a location_id query parameter
func (h *QueryHandler) QuantityOnHand(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}
	locationID, err := optionalUUIDQuery(c, "location_id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	qty, err := h.queries.QuantityOnHand(c.Request.Context(), tenantID, productID, locationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, QuantityResponse{
		ProductID:  productID,
		LocationID: locationID,
		Quantity:   qty,
	})
}

// GetUnit returns one unit by id
func (h *QueryHandler) GetUnit(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	unitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid unit ID format")
		return
	}

	result, err := h.queries.GetUnit(c.Request.Context(), tenantID, unitID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// GetUnitBySerial returns the serialized unit carrying a serial
func (h *QueryHandler) GetUnitBySerial(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	serial := c.Param("serial")
	if serial == "" {
		h.BadRequest(c, "Serial is required")
		return
	}

	result, err := h.queries.GetUnitBySerial(c.Request.Context(), tenantID, serial)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ListUnits returns a filtered, paginated unit listing
func (h *QueryHandler) ListUnits(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var filter ledger.UnitFilter
	if err := bindPagination(c, &filter.Page, &filter.PageSize); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if filter.ProductID, err = optionalUUIDQuery(c, "product_id"); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if filter.LocationID, err = optionalUUIDQuery(c, "location_id"); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if raw := c.Query("status"); raw != "" {
		status := ledger.UnitStatus(raw)
		if !status.IsValid() {
			h.BadRequest(c, "Invalid status value")
			return
		}
		filter.Status = &status
	}
	if raw := c.Query("condition"); raw != "" {
		filter.Condition = &raw
	}
	if raw := c.Query("serial"); raw != "" {
		filter.Serial = &raw
	}
	filter.Search = c.Query("search")

	page, err := h.queries.ListUnits(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// ListMovements returns filtered, paginated movement history
func (h *QueryHandler) ListMovements(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var filter ledger.MovementFilter
	if err := bindPagination(c, &filter.Page, &filter.PageSize); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if filter.ProductID, err = optionalUUIDQuery(c, "product_id"); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if filter.UnitID, err = optionalUUIDQuery(c, "unit_id"); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if filter.LocationID, err = optionalUUIDQuery(c, "location_id"); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if raw := c.Query("kind"); raw != "" {
		kind := ledger.MovementKind(raw)
		if !kind.IsValid() {
			h.BadRequest(c, "Invalid movement kind")
			return
		}
		filter.Kind = &kind
	}
	filter.ReferenceType = c.Query("reference_type")
	filter.ReferenceID = c.Query("reference_id")
	if filter.From, err = optionalTimeQuery(c, "from"); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if filter.To, err = optionalTimeQuery(c, "to"); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.queries.ListMovements(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}
