package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shopledger/backend/internal/infrastructure/logger"
	"github.com/shopledger/backend/internal/interfaces/http/dto"
)

// Gin context keys and headers for request identity
const (
	TenantIDKey     = "tenant_id"
	ActorIDKey      = "actor_id"
	TenantHeaderKey = "X-Tenant-ID"
	ActorHeaderKey  = "X-Actor-ID"
)

// TenantConfig holds tenant middleware configuration
type TenantConfig struct {
	// SkipPaths bypass tenant resolution entirely (health probes etc.)
	SkipPaths []string
	// ActorRequired rejects requests without an X-Actor-ID header. Mutating
	// routes need an actor for movement attribution; read-only routers may
	// relax this.
	ActorRequired bool
}

// DefaultTenantConfig returns the default tenant middleware configuration
func DefaultTenantConfig() TenantConfig {
	return TenantConfig{
		SkipPaths:     []string{"/health", "/ready"},
		ActorRequired: false,
	}
}

// Tenant returns tenant middleware with the default configuration
func Tenant() gin.HandlerFunc {
	return TenantWithConfig(DefaultTenantConfig())
}

// TenantWithConfig extracts the tenant and actor identity from request
// headers and stores both in the gin context and the request context, so
// the service layer and logs see the same identity.
func TenantWithConfig(cfg TenantConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip || strings.HasPrefix(path, skip+"/") {
				c.Next()
				return
			}
		}

		tenantID := c.GetHeader(TenantHeaderKey)
		if tenantID == "" {
			respondUnauthorized(c, "Tenant identification required")
			return
		}
		if _, err := uuid.Parse(tenantID); err != nil {
			respondUnauthorized(c, "Invalid tenant ID format")
			return
		}

		actorID := c.GetHeader(ActorHeaderKey)
		if actorID != "" {
			if _, err := uuid.Parse(actorID); err != nil {
				respondUnauthorized(c, "Invalid actor ID format")
				return
			}
		} else if cfg.ActorRequired {
			respondUnauthorized(c, "Actor identification required")
			return
		}

		c.Set(TenantIDKey, tenantID)
		ctx := c.Request.Context()
		log := logger.FromContext(ctx)
		ctx, log = logger.WithTenantID(ctx, log, tenantID)
		if actorID != "" {
			c.Set(ActorIDKey, actorID)
			ctx, _ = logger.WithActorID(ctx, log, actorID)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func respondUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, message, GetRequestID(c)))
}

// GetTenantUUID retrieves the tenant id set by the tenant middleware
func GetTenantUUID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetString(TenantIDKey)
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// GetActorUUID retrieves the actor id set by the tenant middleware
func GetActorUUID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetString(ActorIDKey)
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
