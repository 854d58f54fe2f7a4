package http

import (
	"errors"
	"net/http"

	"nodegate/internal/core/domain"
	"nodegate/internal/core/services"
	"nodegate/internal/infrastructure/monitoring"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth    services.AuthService
	metrics *monitoring.PrometheusCollector
}

func NewAuthHandler(auth services.AuthService, metrics *monitoring.PrometheusCollector) *AuthHandler {
	return &AuthHandler{
		auth:    auth,
		metrics: metrics,
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request"})
		return
	}

	token, role, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordLogin(false)
		}
		if errors.Is(err, domain.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	if h.metrics != nil {
		h.metrics.RecordLogin(true)
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"role":    role,
	})
}
