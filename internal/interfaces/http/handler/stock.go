package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ledgerapp "github.com/shopledger/backend/internal/application/ledger"
	"github.com/shopledger/backend/internal/domain/ledger"
)

// StockService is the mutation surface the stock handler drives
type StockService interface {
	AddStock(ctx context.Context, tenantID, actorID uuid.UUID, cmd ledgerapp.AddStockCommand) (*ledgerapp.UnitResponse, error)
	AddSerializedUnit(ctx context.Context, tenantID, actorID uuid.UUID, cmd ledgerapp.AddSerializedUnitCommand) (*ledgerapp.UnitResponse, error)
	AdjustStock(ctx context.Context, tenantID, actorID uuid.UUID, cmd ledgerapp.AdjustStockCommand) (*ledgerapp.UnitResponse, error)
	TransferStock(ctx context.Context, tenantID, actorID uuid.UUID, cmd ledgerapp.TransferStockCommand) (*ledgerapp.TransferResult, error)
	CommitForConsumption(ctx context.Context, tenantID, actorID uuid.UUID, cmd ledgerapp.ConsumeStockCommand) (*ledgerapp.ConsumptionResult, error)
	ReverseConsumption(ctx context.Context, tenantID, actorID uuid.UUID, cmd ledgerapp.ReverseConsumptionCommand) ([]ledgerapp.UnitResponse, error)
	Restock(ctx context.Context, tenantID, actorID uuid.UUID, cmd ledgerapp.RestockCommand) (*ledgerapp.UnitResponse, error)
	Assemble(ctx context.Context, tenantID, actorID uuid.UUID, cmd ledgerapp.AssembleCommand) (*ledgerapp.UnitResponse, error)
	Disassemble(ctx context.Context, tenantID, actorID uuid.UUID, cmd ledgerapp.DisassembleCommand) ([]ledgerapp.UnitResponse, error)
	ConsumeRepairPart(ctx context.Context, tenantID, actorID uuid.UUID, cmd ledgerapp.RepairPartCommand) (*ledgerapp.ConsumptionResult, error)
	ReverseRepairPart(ctx context.Context, tenantID, actorID uuid.UUID, repairLineID, reason string) ([]ledgerapp.UnitResponse, error)
}

// StockHandler handles the stock mutation API endpoints
type StockHandler struct {
	BaseHandler
	stock StockService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stock StockService) *StockHandler {
	return &StockHandler{stock: stock}
}

// RegisterRoutes registers the stock mutation routes
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stock := rg.Group("/stock")
	stock.POST("/intake", h.AddStock)
	stock.POST("/intake/serialized", h.AddSerializedUnit)
	stock.POST("/adjustments", h.Adjust)
	stock.POST("/transfers", h.Transfer)
	stock.POST("/consumptions", h.Consume)
	stock.POST("/consumptions/reverse", h.ReverseConsumption)
	stock.POST("/restock", h.Restock)
	stock.POST("/assemblies", h.Assemble)
	stock.POST("/disassemblies", h.Disassemble)
	stock.POST("/repair-parts", h.ConsumeRepairPart)
	stock.POST("/repair-parts/:line_id/reverse", h.ReverseRepairPart)
}

// identity resolves the tenant and actor for a mutating request
func (h *StockHandler) identity(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return uuid.Nil, uuid.Nil, false
	}
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Actor identification required for stock mutations")
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, actorID, true
}

// AddStockRequest is the request body for lot intake
type AddStockRequest struct {
	ProductID  string  `json:"product_id" binding:"required,uuid"`
	LocationID string  `json:"location_id" binding:"required,uuid"`
	Quantity   float64 `json:"quantity" binding:"required,gt=0"`
	UnitCost   float64 `json:"unit_cost" binding:"gte=0"`
	Condition  string  `json:"condition" binding:"omitempty,condition"`
	Note       string  `json:"note"`
}

// AddStock brings lot-based stock in
func (h *StockHandler) AddStock(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}

	var req AddStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.stock.AddStock(c.Request.Context(), tenantID, actorID, ledgerapp.AddStockCommand{
		ProductID:  uuid.MustParse(req.ProductID),
		LocationID: uuid.MustParse(req.LocationID),
		Quantity:   decimal.NewFromFloat(req.Quantity),
		UnitCost:   decimal.NewFromFloat(req.UnitCost),
		Condition:  req.Condition,
		Note:       req.Note,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// AddSerializedUnitRequest is the request body for serialized intake
type AddSerializedUnitRequest struct {
	ProductID  string  `json:"product_id" binding:"required,uuid"`
	LocationID string  `json:"location_id" binding:"required,uuid"`
	Serial     string  `json:"serial" binding:"required,min=1,max=128"`
	UnitCost   float64 `json:"unit_cost" binding:"gte=0"`
	Condition  string  `json:"condition" binding:"omitempty,condition"`
	Note       string  `json:"note"`
}

// AddSerializedUnit brings one serial-tracked item into stock
func (h *StockHandler) AddSerializedUnit(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}

	var req AddSerializedUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.stock.AddSerializedUnit(c.Request.Context(), tenantID, actorID, ledgerapp.AddSerializedUnitCommand{
		ProductID:  uuid.MustParse(req.ProductID),
		LocationID: uuid.MustParse(req.LocationID),
		Serial:     req.Serial,
		UnitCost:   decimal.NewFromFloat(req.UnitCost),
		Condition:  req.Condition,
		Note:       req.Note,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// AdjustStockRequest is the request body for a manual correction
type AdjustStockRequest struct {
	ProductID  string  `json:"product_id" binding:"required,uuid"`
	LocationID string  `json:"location_id" binding:"required,uuid"`
	Delta      float64 `json:"delta" binding:"required"`
	Reason     string  `json:"reason" binding:"required,min=1,max=500"`
}

// Adjust applies a signed manual correction to lot stock
func (h *StockHandler) Adjust(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}

	var req AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.stock.AdjustStock(c.Request.Context(), tenantID, actorID, ledgerapp.AdjustStockCommand{
		ProductID:  uuid.MustParse(req.ProductID),
		LocationID: uuid.MustParse(req.LocationID),
		Delta:      decimal.NewFromFloat(req.Delta),
		Reason:     req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// TransferStockRequest is the request body for a transfer. Exactly one of
// quantity or serial must be present.
type TransferStockRequest struct {
	ProductID string   `json:"product_id" binding:"required,uuid"`
	From      string   `json:"from_location_id" binding:"required,uuid"`
	To        string   `json:"to_location_id" binding:"required,uuid"`
	Quantity  *float64 `json:"quantity" binding:"omitempty,gt=0"`
	Serial    *string  `json:"serial" binding:"omitempty,min=1"`
	Note      string   `json:"note"`
}

// Transfer moves stock between locations
func (h *StockHandler) Transfer(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}

	var req TransferStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	cmd := ledgerapp.TransferStockCommand{
		ProductID: uuid.MustParse(req.ProductID),
		From:      uuid.MustParse(req.From),
		To:        uuid.MustParse(req.To),
		Serial:    req.Serial,
		Note:      req.Note,
	}
	if req.Quantity != nil {
		qty := decimal.NewFromFloat(*req.Quantity)
		cmd.Quantity = &qty
	}

	result, err := h.stock.TransferStock(c.Request.Context(), tenantID, actorID, cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ConsumeStockRequest is the request body for committing a consumption
type ConsumeStockRequest struct {
	ProductID     string  `json:"product_id" binding:"required,uuid"`
	LocationID    string  `json:"location_id" binding:"required,uuid"`
	Quantity      float64 `json:"quantity" binding:"required,gt=0"`
	UnitID        *string `json:"unit_id" binding:"omitempty,uuid"`
	TargetStatus  string  `json:"target_status" binding:"omitempty,oneof=SOLD DAMAGED USED_IN_CONSUMPTION"`
	ReferenceType string  `json:"reference_type" binding:"required"`
	ReferenceID   string  `json:"reference_id" binding:"required"`
}

// Consume commits stock for a finalized business document
func (h *StockHandler) Consume(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}

	var req ConsumeStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	cmd := ledgerapp.ConsumeStockCommand{
		ProductID:     uuid.MustParse(req.ProductID),
		LocationID:    uuid.MustParse(req.LocationID),
		Quantity:      decimal.NewFromFloat(req.Quantity),
		TargetStatus:  ledger.UnitStatus(req.TargetStatus),
		ReferenceType: req.ReferenceType,
		ReferenceID:   req.ReferenceID,
	}
	if req.UnitID != nil {
		unitID := uuid.MustParse(*req.UnitID)
		cmd.UnitID = &unitID
	}

	result, err := h.stock.CommitForConsumption(c.Request.Context(), tenantID, actorID, cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ReverseConsumptionRequest is the request body for a consumption reversal
type ReverseConsumptionRequest struct {
	ReferenceType string `json:"reference_type" binding:"required"`
	ReferenceID   string `json:"reference_id" binding:"required"`
	Reason        string `json:"reason" binding:"max=500"`
}

// ReverseConsumption restores every unit consumed under a reference
func (h *StockHandler) ReverseConsumption(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}

	var req ReverseConsumptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.stock.ReverseConsumption(c.Request.Context(), tenantID, actorID, ledgerapp.ReverseConsumptionCommand{
		ReferenceType: req.ReferenceType,
		ReferenceID:   req.ReferenceID,
		Reason:        req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RestockRequest is the request body for reintroducing consumed goods
type RestockRequest struct {
	UnitID                string  `json:"unit_id" binding:"required,uuid"`
	Quantity              float64 `json:"quantity" binding:"required,gt=0"`
	NewCondition          string  `json:"new_condition" binding:"omitempty,condition"`
	DestinationLocationID string  `json:"destination_location_id" binding:"required,uuid"`
	ReferenceType         string  `json:"reference_type"`
	ReferenceID           string  `json:"reference_id"`
}

// Restock reintroduces previously consumed goods
func (h *StockHandler) Restock(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}

	var req RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.stock.Restock(c.Request.Context(), tenantID, actorID, ledgerapp.RestockCommand{
		UnitID:                uuid.MustParse(req.UnitID),
		Quantity:              decimal.NewFromFloat(req.Quantity),
		NewCondition:          req.NewCondition,
		DestinationLocationID: uuid.MustParse(req.DestinationLocationID),
		ReferenceType:         req.ReferenceType,
		ReferenceID:           req.ReferenceID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// AssembleRequest is the request body for building composite units
type AssembleRequest struct {
	ProductID                 string  `json:"product_id" binding:"required,uuid"`
	Quantity                  float64 `json:"quantity" binding:"required,gt=0"`
	TargetLocationID          string  `json:"target_location_id" binding:"required,uuid"`
	ComponentSourceLocationID string  `json:"component_source_location_id" binding:"required,uuid"`
	ReferenceID               string  `json:"reference_id"`
}

// Assemble builds composite units from component stock
func (h *StockHandler) Assemble(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}

	var req AssembleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.stock.Assemble(c.Request.Context(), tenantID, actorID, ledgerapp.AssembleCommand{
		ProductID:                 uuid.MustParse(req.ProductID),
		Quantity:                  decimal.NewFromFloat(req.Quantity),
		TargetLocationID:          uuid.MustParse(req.TargetLocationID),
		ComponentSourceLocationID: uuid.MustParse(req.ComponentSourceLocationID),
		ReferenceID:               req.ReferenceID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// DisassembleRequest is the request body for breaking composite units down
type DisassembleRequest struct {
	UnitID                         string  `json:"unit_id" binding:"required,uuid"`
	Quantity                       float64 `json:"quantity" binding:"required,gt=0"`
	ComponentDestinationLocationID string  `json:"component_destination_location_id" binding:"required,uuid"`
	ReferenceID                    string  `json:"reference_id"`
}

// Disassemble breaks composite units back into component stock
func (h *StockHandler) Disassemble(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}

	var req DisassembleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.stock.Disassemble(c.Request.Context(), tenantID, actorID, ledgerapp.DisassembleCommand{
		UnitID:                         uuid.MustParse(req.UnitID),
		Quantity:                       decimal.NewFromFloat(req.Quantity),
		ComponentDestinationLocationID: uuid.MustParse(req.ComponentDestinationLocationID),
		ReferenceID:                    req.ReferenceID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RepairPartRequest is the request body for consuming a part on a repair line
type RepairPartRequest struct {
	ProductID    string   `json:"product_id" binding:"required,uuid"`
	LocationID   string   `json:"location_id" binding:"required,uuid"`
	UnitID       *string  `json:"unit_id" binding:"omitempty,uuid"`
	Quantity     *float64 `json:"quantity" binding:"omitempty,gt=0"`
	RepairLineID string   `json:"repair_line_id" binding:"required"`
}

// ConsumeRepairPart consumes a part against a repair line
func (h *StockHandler) ConsumeRepairPart(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}

	var req RepairPartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	cmd := ledgerapp.RepairPartCommand{
		ProductID:    uuid.MustParse(req.ProductID),
		LocationID:   uuid.MustParse(req.LocationID),
		RepairLineID: req.RepairLineID,
	}
	if req.UnitID != nil {
		unitID := uuid.MustParse(*req.UnitID)
		cmd.UnitID = &unitID
	}
	if req.Quantity != nil {
		qty := decimal.NewFromFloat(*req.Quantity)
		cmd.Quantity = &qty
	}

	result, err := h.stock.ConsumeRepairPart(c.Request.Context(), tenantID, actorID, cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ReverseRepairPartRequest is the request body for a repair line reversal
type ReverseRepairPartRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// ReverseRepairPart restores the stock consumed by a repair line
func (h *StockHandler) ReverseRepairPart(c *gin.Context) {
	tenantID, actorID, ok := h.identity(c)
	if !ok {
		return
	}

	repairLineID := c.Param("line_id")
	if repairLineID == "" {
		h.BadRequest(c, "Repair line id is required")
		return
	}

	var req ReverseRepairPartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.stock.ReverseRepairPart(c.Request.Context(), tenantID, actorID, repairLineID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
