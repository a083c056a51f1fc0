package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping() error {
	return f.err
}

func newSystemRouter(p Pinger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewSystemHandler(p)
	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestSystemHandler_Health(t *testing.T) {
	r := newSystemRouter(nil)
	w := getPath(r, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestSystemHandler_Ready(t *testing.T) {
	r := newSystemRouter(&fakePinger{})
	w := getPath(r, "/ready")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ready")
}

func TestSystemHandler_Ready_DatabaseDown(t *testing.T) {
	r := newSystemRouter(&fakePinger{err: errors.New("dial tcp: connection refused")})
	w := getPath(r, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSystemHandler_Ping(t *testing.T) {
	r := newSystemRouter(nil)
	w := getPath(r, "/api/v1/system/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pong")
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	r := newSystemRouter(nil)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/system/info", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Stock Ledger API")
}
