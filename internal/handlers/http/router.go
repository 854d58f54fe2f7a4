package http

import (
	"context"
	"net/http"
	"time"

	"nodegate/internal/core/ports"
	"nodegate/internal/core/services"
	"nodegate/internal/infrastructure/middleware"
	"nodegate/internal/infrastructure/monitoring"
	"nodegate/internal/infrastructure/proxy"
	"nodegate/internal/infrastructure/ws"
	"nodegate/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps carries everything the router wires together.
type Deps struct {
	Config    *config.Config
	Logger    *zap.SugaredLogger
	Tokens    services.TokenService
	Auth      services.AuthService
	Nodes     ports.NodeService
	Users     ports.UserService
	Access    ports.AccessService
	Audit     ports.AuditService
	Forwarder *proxy.Forwarder
	Metrics   *monitoring.PrometheusCollector
	Status    *ws.StatusServer

	// Ready reports backing-store health for the readiness probe.
	Ready func(ctx context.Context) error
}

// NewRouter builds the gin engine with the full route table.
func NewRouter(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(deps.Logger.Desugar()))
	router.Use(middleware.RecoveryMiddleware(deps.Logger))
	router.Use(middleware.ErrorHandlerMiddleware(deps.Logger))
	router.Use(middleware.NewHTTPRateLimitMiddleware(deps.Config))
	if deps.Config.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware())
	}

	authHandler := NewAuthHandler(deps.Auth, deps.Metrics)
	nodeHandler := NewNodeHandler(deps.Nodes, deps.Status)
	userHandler := NewUserHandler(deps.Users)
	proxyHandler := NewProxyHandler(deps.Forwarder, deps.Audit)
	adminHandler := NewAdminHandler(deps.Audit, deps.Status)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ready", func(c *gin.Context) {
		if deps.Ready != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Ready(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	if deps.Config.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	if deps.Status != nil {
		router.GET("/ws", gin.WrapF(deps.Status.HandleConnection))
	}

	nodeGuard := middleware.NodeAccessMiddleware(deps.Access, deps.Metrics)

	api := router.Group("/api")
	api.POST("/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(deps.Tokens, deps.Audit, deps.Metrics))

	authed.GET("/nodes", nodeHandler.List)
	// One wildcard owns the proxy sub-tree; the handler dispatches GET
	// live/ requests to the event stream bridge.
	authed.Any("/nodes/:nodeId/proxy/*path", nodeGuard, proxyHandler.Proxy)
	authed.GET("/logs/:nodeId", nodeGuard, proxyHandler.Logs)

	admin := authed.Group("")
	admin.Use(middleware.AdminMiddleware(deps.Audit))

	admin.POST("/nodes", nodeHandler.Create)
	admin.PUT("/nodes/:nodeId", nodeHandler.Update)
	admin.DELETE("/nodes/:nodeId", nodeHandler.Delete)

	admin.POST("/push-config/:nodeId", nodeGuard, proxyHandler.PushConfig)
	admin.POST("/command/:nodeId", nodeGuard, proxyHandler.Command)
	admin.GET("/command-history", adminHandler.CommandHistory)
	admin.GET("/server-logs", adminHandler.ServerLogs)
	admin.GET("/security-audit-logs", adminHandler.SecurityAuditLogs)
	admin.GET("/server-status", adminHandler.ServerStatus)

	admin.GET("/users", userHandler.List)
	admin.POST("/users", userHandler.Create)
	admin.PUT("/users/:username/role", userHandler.UpdateRole)
	admin.PUT("/users/:username/password", userHandler.UpdatePassword)
	admin.PUT("/users/:username/assign-nodes", userHandler.AssignNodes)
	admin.DELETE("/users/:username", userHandler.Delete)

	return router
}
