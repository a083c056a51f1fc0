package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ledgerapp "github.com/shopledger/backend/internal/application/ledger"
	"github.com/shopledger/backend/internal/domain/shared"
)

// CountService is the physical count surface the count handler drives
type CountService interface {
	StartSession(ctx context.Context, tenantID, actorID uuid.UUID, cmd ledgerapp.StartSessionCommand) (*ledgerapp.CountSessionResponse, error)
	RecordCount(ctx context.Context, tenantID uuid.UUID, cmd ledgerapp.RecordCountCommand) (*ledgerapp.CountLineResponse, error)
	Finalize(ctx context.Context, tenantID, actorID, sessionID uuid.UUID, notes string) (*ledgerapp.CountSessionResponse, error)
	GetSession(ctx context.Context, tenantID, sessionID uuid.UUID) (*ledgerapp.CountSessionResponse, error)
	ListSessions(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[ledgerapp.CountSessionResponse], error)
}

// CountHandler handles the physical count API endpoints
type CountHandler struct {
	BaseHandler
	counts CountService
}

// NewCountHandler creates a new CountHandler
func NewCountHandler(counts CountService) *CountHandler {
	return &CountHandler{counts: counts}
}

// RegisterRoutes registers the count session routes
func (h *CountHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sessions := rg.Group("/count-sessions")
	sessions.POST("", h.Start)
	sessions.GET("", h.List)
	sessions.GET("/:id", h.Get)
	sessions.POST("/:id/lines/:line_id/count", h.RecordCount)
	sessions.POST("/:id/finalize", h.Finalize)
}

// StartSessionRequest is the request body for starting a count.
// Without explicit lines a location is required and lines are snapshotted
// from the stock currently at that location.
type StartSessionRequest struct {
	LocationID *string                   `json:"location_id" binding:"omitempty,uuid"`
	Notes      string                    `json:"notes" binding:"max=1000"`
	Lines      []StartSessionLineRequest `json:"lines" binding:"omitempty,dive"`
}

// StartSessionLineRequest is one explicitly requested count line
type StartSessionLineRequest struct {
	ProductID  string  `json:"product_id" binding:"required,uuid"`
	UnitID     *string `json:"unit_id" binding:"omitempty,uuid"`
	LocationID string  `json:"location_id" binding:"required,uuid"`
}

// Start begins a physical count session
func (h *CountHandler) Start(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Actor identification required for count sessions")
		return
	}

	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	cmd := ledgerapp.StartSessionCommand{Notes: req.Notes}
	if req.LocationID != nil {
		locationID := uuid.MustParse(*req.LocationID)
		cmd.LocationID = &locationID
	}
	for _, line := range req.Lines {
		input := ledgerapp.SessionLineInput{
			ProductID:  uuid.MustParse(line.ProductID),
			LocationID: uuid.MustParse(line.LocationID),
		}
		if line.UnitID != nil {
			unitID := uuid.MustParse(*line.UnitID)
			input.UnitID = &unitID
		}
		cmd.Lines = append(cmd.Lines, input)
	}

	result, err := h.counts.StartSession(c.Request.Context(), tenantID, actorID, cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// RecordCountRequest is the request body for entering a counted quantity
type RecordCountRequest struct {
	Counted float64 `json:"counted" binding:"gte=0"`
	Notes   string  `json:"notes" binding:"max=500"`
}

// RecordCount enters a counted quantity for one session line
func (h *CountHandler) RecordCount(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid session ID format")
		return
	}
	lineID, err := uuid.Parse(c.Param("line_id"))
	if err != nil {
		h.BadRequest(c, "Invalid line ID format")
		return
	}

	var req RecordCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.counts.RecordCount(c.Request.Context(), tenantID, ledgerapp.RecordCountCommand{
		SessionID: sessionID,
		LineID:    lineID,
		Counted:   decimal.NewFromFloat(req.Counted),
		Notes:     req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// FinalizeSessionRequest is the request body for finalizing a count
type FinalizeSessionRequest struct {
	Notes string `json:"notes" binding:"max=1000"`
}

// Finalize applies count adjustments and completes the session
func (h *CountHandler) Finalize(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Actor identification required for count sessions")
		return
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid session ID format")
		return
	}

	var req FinalizeSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.counts.Finalize(c.Request.Context(), tenantID, actorID, sessionID, req.Notes)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Get returns one session with its lines
func (h *CountHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid session ID format")
		return
	}

	result, err := h.counts.GetSession(c.Request.Context(), tenantID, sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// List returns paginated sessions without their lines
func (h *CountHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	filter := shared.Filter{
		Search: c.Query("search"),
	}
	if err := bindPagination(c, &filter.Page, &filter.PageSize); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if status := c.Query("status"); status != "" {
		filter.Filters = map[string]any{"status": status}
	}

	page, err := h.counts.ListSessions(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}
