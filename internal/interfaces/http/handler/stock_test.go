package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	ledgerapp "github.com/shopledger/backend/internal/application/ledger"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/interfaces/http/middleware"
)

var (
	testTenantID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	testActorID  = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

// newTestRouter builds a router with the identity already resolved, the way
// the tenant middleware would leave it
func newTestRouter(register func(rg *gin.RouterGroup)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Set(middleware.TenantIDKey, testTenantID.String())
		c.Set(middleware.ActorIDKey, testActorID.String())
		c.Next()
	})
	register(api)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestStockHandler_AddStock(t *testing.T) {
	svc := new(mockStockService)
	r := newTestRouter(NewStockHandler(svc).RegisterRoutes)

	productID := uuid.New()
	locationID := uuid.New()
	svc.On("AddStock", mock.Anything, testTenantID, testActorID, mock.MatchedBy(func(cmd ledgerapp.AddStockCommand) bool {
		return cmd.ProductID == productID &&
			cmd.LocationID == locationID &&
			cmd.Quantity.Equal(decimal.NewFromInt(5)) &&
			cmd.Condition == "new"
	})).Return(&ledgerapp.UnitResponse{ID: uuid.New(), ProductID: productID}, nil)

	w := postJSON(t, r, "/api/v1/stock/intake", gin.H{
		"product_id":  productID.String(),
		"location_id": locationID.String(),
		"quantity":    5,
		"unit_cost":   12.5,
		"condition":   "new",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	svc.AssertExpectations(t)
}

func TestStockHandler_AddStock_RejectsMissingQuantity(t *testing.T) {
	svc := new(mockStockService)
	r := newTestRouter(NewStockHandler(svc).RegisterRoutes)

	w := postJSON(t, r, "/api/v1/stock/intake", gin.H{
		"product_id":  uuid.New().String(),
		"location_id": uuid.New().String(),
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_VALIDATION")
	svc.AssertNotCalled(t, "AddStock")
}

func TestStockHandler_AddSerializedUnit_ConflictOnDuplicateSerial(t *testing.T) {
	svc := new(mockStockService)
	r := newTestRouter(NewStockHandler(svc).RegisterRoutes)

	svc.On("AddSerializedUnit", mock.Anything, testTenantID, testActorID, mock.Anything).
		Return(nil, shared.NewDomainError("CONFLICT", "Serial IMEI-1 already exists in inventory"))

	w := postJSON(t, r, "/api/v1/stock/intake/serialized", gin.H{
		"product_id":  uuid.New().String(),
		"location_id": uuid.New().String(),
		"serial":      "IMEI-1",
		"unit_cost":   199.0,
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_CONFLICT")
}

func TestStockHandler_Consume_InsufficientStockMapsTo422(t *testing.T) {
	svc := new(mockStockService)
	r := newTestRouter(NewStockHandler(svc).RegisterRoutes)

	svc.On("CommitForConsumption", mock.Anything, testTenantID, testActorID, mock.Anything).
		Return(nil, shared.ErrInsufficientStock)

	w := postJSON(t, r, "/api/v1/stock/consumptions", gin.H{
		"product_id":     uuid.New().String(),
		"location_id":    uuid.New().String(),
		"quantity":       3,
		"reference_type": "sale",
		"reference_id":   "SO-100",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_INSUFFICIENT_STOCK")
}

func TestStockHandler_Transfer_SerialPath(t *testing.T) {
	svc := new(mockStockService)
	r := newTestRouter(NewStockHandler(svc).RegisterRoutes)

	from := uuid.New()
	to := uuid.New()
	svc.On("TransferStock", mock.Anything, testTenantID, testActorID, mock.MatchedBy(func(cmd ledgerapp.TransferStockCommand) bool {
		return cmd.Quantity == nil && cmd.Serial != nil && *cmd.Serial == "IMEI-9" &&
			cmd.From == from && cmd.To == to
	})).Return(&ledgerapp.TransferResult{}, nil)

	w := postJSON(t, r, "/api/v1/stock/transfers", gin.H{
		"product_id":       uuid.New().String(),
		"from_location_id": from.String(),
		"to_location_id":   to.String(),
		"serial":           "IMEI-9",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestStockHandler_ReverseRepairPart_UsesPathParam(t *testing.T) {
	svc := new(mockStockService)
	r := newTestRouter(NewStockHandler(svc).RegisterRoutes)

	svc.On("ReverseRepairPart", mock.Anything, testTenantID, testActorID, "RL-42", "customer declined").
		Return([]ledgerapp.UnitResponse{{ID: uuid.New()}}, nil)

	w := postJSON(t, r, "/api/v1/stock/repair-parts/RL-42/reverse", gin.H{
		"reason": "customer declined",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestStockHandler_RequiresActor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := new(mockStockService)
	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		// Tenant resolved, actor missing
		c.Set(middleware.TenantIDKey, testTenantID.String())
		c.Next()
	})
	NewStockHandler(svc).RegisterRoutes(api)

	w := postJSON(t, r, "/api/v1/stock/adjustments", gin.H{
		"product_id":  uuid.New().String(),
		"location_id": uuid.New().String(),
		"delta":       -2,
		"reason":      "damage writeoff",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	svc.AssertNotCalled(t, "AdjustStock")
}
