package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"nodegate/internal/core/domain"
	"nodegate/internal/core/ports"
	"nodegate/internal/infrastructure/middleware"
	"nodegate/internal/infrastructure/proxy"
	apperrors "nodegate/pkg/errors"
	"nodegate/pkg/tracing"
	"nodegate/pkg/utils"

	"github.com/gin-gonic/gin"
)

type ProxyHandler struct {
	forwarder *proxy.Forwarder
	audit     ports.AuditService
}

func NewProxyHandler(forwarder *proxy.Forwarder, audit ports.AuditService) *ProxyHandler {
	return &ProxyHandler{
		forwarder: forwarder,
		audit:     audit,
	}
}

// Proxy relays the request to the node resolved by the access guard.
// GET requests under live/ open an event stream bridge instead of a
// unary exchange; the two cannot be separate routes because the
// wildcard already owns the sub-tree.
func (h *ProxyHandler) Proxy(c *gin.Context) {
	node, ok := middleware.NodeFromContext(c)
	if !ok {
		c.Error(apperrors.NewInternalError("Internal server error"))
		return
	}

	subPath := strings.TrimPrefix(c.Param("path"), "/")
	ctx, span := tracing.TraceProxyForward(c.Request.Context(), string(node.ID), subPath)
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	if c.Request.Method == http.MethodGet && strings.HasPrefix(subPath, "live/") {
		stream := strings.TrimPrefix(subPath, "live/")
		h.forwarder.Bridge(c.Writer, c.Request, node, stream)
		return
	}

	h.forwarder.Forward(c.Writer, c.Request, node, subPath)
}

// Logs fetches the node's log tail through the trusted channel.
func (h *ProxyHandler) Logs(c *gin.Context) {
	node, ok := middleware.NodeFromContext(c)
	if !ok {
		c.Error(apperrors.NewInternalError("Internal server error"))
		return
	}
	h.forwarder.Forward(c.Writer, c.Request, node, "logs")
}

// PushConfig relays a configuration document to the node.
func (h *ProxyHandler) PushConfig(c *gin.Context) {
	node, ok := middleware.NodeFromContext(c)
	if !ok {
		c.Error(apperrors.NewInternalError("Internal server error"))
		return
	}

	resp, err := h.forwarder.Do(c.Request.Context(), node, http.MethodPost, "config", c.Request.Body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Node unreachable"})
		return
	}
	defer resp.Body.Close()

	identity, _ := middleware.IdentityFromContext(c)
	h.audit.Event(c.Request.Context(), domain.AuditInfo, "Config pushed to node", map[string]interface{}{
		"nodeId":   node.ID,
		"username": identity.Username,
		"status":   resp.StatusCode,
	})

	relayJSON(c, resp)
}

// Command forwards one operator command to the node and records it in
// the command history journal, whatever the outcome.
func (h *ProxyHandler) Command(c *gin.Context) {
	node, ok := middleware.NodeFromContext(c)
	if !ok {
		c.Error(apperrors.NewInternalError("Internal server error"))
		return
	}

	var req struct {
		Cmd string `json:"cmd" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Command is required"})
		return
	}

	identity, _ := middleware.IdentityFromContext(c)
	cmdID := utils.GenerateCommandID()
	details := map[string]interface{}{
		"cmdId":    cmdID,
		"command":  req.Cmd,
		"nodeId":   node.ID,
		"username": identity.Username,
	}

	payload, _ := json.Marshal(map[string]string{"cmd": req.Cmd, "cmdId": cmdID})
	resp, err := h.forwarder.Do(c.Request.Context(), node, http.MethodPost, "command", strings.NewReader(string(payload)))
	if err != nil {
		details["status"] = "unreachable"
		h.audit.Command(c.Request.Context(), details)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Node offline"})
		return
	}
	defer resp.Body.Close()

	details["status"] = resp.StatusCode
	h.audit.Command(c.Request.Context(), details)

	relayJSON(c, resp)
}

// relayJSON copies the upstream status and body. Non-JSON upstream
// bodies are wrapped so callers always get a JSON document.
func relayJSON(c *gin.Context, resp *http.Response) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to proxy request to node"})
		return
	}
	if json.Valid(body) {
		c.Data(resp.StatusCode, "application/json", body)
		return
	}
	c.JSON(resp.StatusCode, gin.H{"response": string(body)})
}
