package http

import (
	"errors"
	"net/http"

	"nodegate/internal/core/domain"
	"nodegate/internal/core/ports"
	"nodegate/internal/infrastructure/middleware"
	"nodegate/internal/infrastructure/ws"
	apperrors "nodegate/pkg/errors"

	"github.com/gin-gonic/gin"
)

type NodeHandler struct {
	nodes  ports.NodeService
	status *ws.StatusServer
}

func NewNodeHandler(nodes ports.NodeService, status *ws.StatusServer) *NodeHandler {
	return &NodeHandler{nodes: nodes, status: status}
}

// notifyRegistryChanged pushes a status frame to dashboard clients so
// they refresh their node list.
func (h *NodeHandler) notifyRegistryChanged() {
	if h.status != nil {
		h.status.Broadcast(ws.StatusMessage{Type: "nodes", Message: "Node registry updated"})
	}
}

// List returns the caller's visible slice of the registry: everything
// for admins, the assigned subset for users.
func (h *NodeHandler) List(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
		return
	}

	nodes, err := h.nodes.ListForIdentity(c.Request.Context(), identity)
	if err != nil {
		c.Error(apperrors.WrapError(err, apperrors.ErrCodeInternal, "Internal server error", http.StatusInternalServerError))
		return
	}
	c.JSON(http.StatusOK, nodes)
}

func (h *NodeHandler) Create(c *gin.Context) {
	var req struct {
		Name   string `json:"name" binding:"required"`
		APIURL string `json:"apiUrl" binding:"required"`
		WSURL  string `json:"wsUrl"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	node, err := h.nodes.Create(c.Request.Context(), req.Name, req.APIURL, req.WSURL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.notifyRegistryChanged()
	c.JSON(http.StatusCreated, node)
}

func (h *NodeHandler) Update(c *gin.Context) {
	var req struct {
		Name   string `json:"name" binding:"required"`
		APIURL string `json:"apiUrl" binding:"required"`
		WSURL  string `json:"wsUrl"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := domain.NodeID(c.Param("nodeId"))
	node, err := h.nodes.Update(c.Request.Context(), id, req.Name, req.APIURL, req.WSURL)
	if err != nil {
		if errors.Is(err, domain.ErrNodeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Node not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.notifyRegistryChanged()
	c.JSON(http.StatusOK, gin.H{"success": true, "node": node})
}

func (h *NodeHandler) Delete(c *gin.Context) {
	id := domain.NodeID(c.Param("nodeId"))
	if err := h.nodes.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNodeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Node not found"})
			return
		}
		c.Error(apperrors.WrapError(err, apperrors.ErrCodeInternal, "Internal server error", http.StatusInternalServerError))
		return
	}
	h.notifyRegistryChanged()
	c.JSON(http.StatusOK, gin.H{"success": true})
}
