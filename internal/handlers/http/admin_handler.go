package http

import (
	"net/http"
	"runtime"
	"time"

	"nodegate/internal/core/ports"
	"nodegate/internal/infrastructure/ws"
	apperrors "nodegate/pkg/errors"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	audit   ports.AuditService
	status  *ws.StatusServer
	started time.Time
}

func NewAdminHandler(audit ports.AuditService, status *ws.StatusServer) *AdminHandler {
	return &AdminHandler{
		audit:   audit,
		status:  status,
		started: time.Now(),
	}
}

// ServerStatus reports gateway uptime and memory usage for the
// dashboard.
func (h *AdminHandler) ServerStatus(c *gin.Context) {
	uptime := time.Since(h.started)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	dashboardClients := 0
	if h.status != nil {
		dashboardClients = h.status.ClientCount()
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": gin.H{
			"days":    int(uptime.Hours()) / 24,
			"hours":   int(uptime.Hours()) % 24,
			"minutes": int(uptime.Minutes()) % 60,
			"seconds": int(uptime.Seconds()) % 60,
		},
		"memory": gin.H{
			"alloc_bytes":       mem.Alloc,
			"total_alloc_bytes": mem.TotalAlloc,
			"sys_bytes":         mem.Sys,
			"num_gc":            mem.NumGC,
		},
		"goroutines":       runtime.NumGoroutine(),
		"dashboardClients": dashboardClients,
		"timestamp":        time.Now().UTC(),
	})
}

func (h *AdminHandler) ServerLogs(c *gin.Context) {
	records, err := h.audit.EventLog(c.Request.Context())
	if err != nil {
		c.Error(apperrors.WrapError(err, apperrors.ErrCodeInternal, "Internal server error", http.StatusInternalServerError))
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *AdminHandler) SecurityAuditLogs(c *gin.Context) {
	records, err := h.audit.SecurityLog(c.Request.Context())
	if err != nil {
		c.Error(apperrors.WrapError(err, apperrors.ErrCodeInternal, "Internal server error", http.StatusInternalServerError))
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *AdminHandler) CommandHistory(c *gin.Context) {
	records, err := h.audit.CommandLog(c.Request.Context())
	if err != nil {
		c.Error(apperrors.WrapError(err, apperrors.ErrCodeInternal, "Internal server error", http.StatusInternalServerError))
		return
	}
	c.JSON(http.StatusOK, records)
}
