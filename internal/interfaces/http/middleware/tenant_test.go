package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTenantTestRouter(cfg TenantConfig) (*gin.Engine, **gin.Context) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TenantWithConfig(cfg))
	var captured *gin.Context
	r.GET("/units", func(c *gin.Context) {
		captured = c
		c.Status(http.StatusOK)
	})
	r.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r, &captured
}

func TestTenant_RequiresHeader(t *testing.T) {
	r, _ := newTenantTestRouter(DefaultTenantConfig())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/units", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_UNAUTHORIZED")
}

func TestTenant_RejectsMalformedTenantID(t *testing.T) {
	r, _ := newTenantTestRouter(DefaultTenantConfig())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/units", nil)
	req.Header.Set(TenantHeaderKey, "not-a-uuid")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTenant_SetsTenantAndActor(t *testing.T) {
	r, captured := newTenantTestRouter(DefaultTenantConfig())

	tenantID := uuid.New()
	actorID := uuid.New()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/units", nil)
	req.Header.Set(TenantHeaderKey, tenantID.String())
	req.Header.Set(ActorHeaderKey, actorID.String())
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	gotTenant, ok := GetTenantUUID(*captured)
	require.True(t, ok)
	assert.Equal(t, tenantID, gotTenant)

	gotActor, ok := GetActorUUID(*captured)
	require.True(t, ok)
	assert.Equal(t, actorID, gotActor)
}

func TestTenant_ActorRequired(t *testing.T) {
	cfg := DefaultTenantConfig()
	cfg.ActorRequired = true
	r, _ := newTenantTestRouter(cfg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/units", nil)
	req.Header.Set(TenantHeaderKey, uuid.New().String())
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Actor identification required")
}

func TestTenant_SkipPaths(t *testing.T) {
	r, _ := newTenantTestRouter(DefaultTenantConfig())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
