package middleware

import (
	"errors"
	"net/http"

	"nodegate/internal/core/domain"
	"nodegate/internal/core/ports"
	"nodegate/internal/infrastructure/monitoring"

	"github.com/gin-gonic/gin"
)

const nodeKey = "node"

// NodeAccessMiddleware resolves the :nodeId parameter through the
// authorization guard and stores the node for the handler. It must run
// after AuthMiddleware.
func NodeAccessMiddleware(access ports.AccessService, metrics *monitoring.PrometheusCollector) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
			return
		}

		nodeID := domain.NodeID(c.Param("nodeId"))
		node, err := access.Authorize(c.Request.Context(), identity, nodeID)
		if metrics != nil {
			metrics.RecordAccessDecision(err)
		}
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrNodeNotFound):
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Node not found"})
			case errors.Is(err, domain.ErrNodeDisabled):
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Node is disabled"})
			case errors.Is(err, domain.ErrNodeAccessDenied):
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			}
			return
		}

		c.Set(nodeKey, node)
		c.Next()
	}
}

// NodeFromContext returns the node resolved by NodeAccessMiddleware.
func NodeFromContext(c *gin.Context) (*domain.Node, bool) {
	val, exists := c.Get(nodeKey)
	if !exists {
		return nil, false
	}
	node, ok := val.(*domain.Node)
	return node, ok
}
