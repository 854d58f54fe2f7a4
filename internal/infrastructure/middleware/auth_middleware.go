package middleware

import (
	"context"
	"net/http"
	"strings"

	"nodegate/internal/core/domain"
	"nodegate/internal/core/ports"
	"nodegate/internal/core/services"
	"nodegate/internal/infrastructure/monitoring"
	"nodegate/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	identityKey = "identity"
)

// AuthMiddleware verifies the session token and stores the caller's
// identity in the request context. The token arrives as a bearer header
// or, for EventSource clients that cannot set headers, as a ?token=
// query parameter.
func AuthMiddleware(tokens services.TokenService, audit ports.AuditService, metrics *monitoring.PrometheusCollector) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			audit.Security(c.Request.Context(), domain.AuditWarn,
				"Unauthorized access attempt: "+c.Request.URL.Path,
				map[string]interface{}{
					"reason": "no token",
					"ip":     c.ClientIP(),
					"method": c.Request.Method,
				})
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
			return
		}

		claims, err := tokens.Verify(token)
		if err != nil {
			if metrics != nil {
				metrics.RecordAuthFailure()
			}
			audit.Security(c.Request.Context(), domain.AuditWarn,
				"Unauthorized access attempt: "+c.Request.URL.Path,
				map[string]interface{}{
					"reason": err.Error(),
					"ip":     c.ClientIP(),
					"method": c.Request.Method,
				})
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		identity := claims.Identity()
		c.Set(identityKey, identity)
		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), logger.UsernameKey, identity.Username))
		c.Next()
	}
}

// AdminMiddleware rejects non-admin callers. It must run after
// AuthMiddleware.
func AdminMiddleware(audit ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
			return
		}
		if !identity.IsAdmin() {
			audit.Security(c.Request.Context(), domain.AuditWarn,
				"Unauthorized access attempt: "+c.Request.URL.Path,
				map[string]interface{}{
					"reason":   "admin required",
					"username": identity.Username,
					"ip":       c.ClientIP(),
				})
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}

// IdentityFromContext returns the identity stored by AuthMiddleware.
func IdentityFromContext(c *gin.Context) (domain.Identity, bool) {
	val, exists := c.Get(identityKey)
	if !exists {
		return domain.Identity{}, false
	}
	identity, ok := val.(domain.Identity)
	return identity, ok
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
