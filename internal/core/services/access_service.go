package services

import (
	"context"
	"errors"

	"nodegate/internal/core/domain"
	"nodegate/internal/core/ports"
)

// accessService decides ALLOW/DENY for (identity, node) pairs. Decisions
// are never cached: every request re-reads the node and assignment
// stores, so a revoked assignment takes effect on the next request.
type accessService struct {
	nodes          ports.NodeRepository
	assignments    ports.AssignmentRepository
	audit          ports.AuditService
	enforceEnabled bool
}

func NewAccessService(nodes ports.NodeRepository, assignments ports.AssignmentRepository, audit ports.AuditService, enforceEnabled bool) ports.AccessService {
	return &accessService{
		nodes:          nodes,
		assignments:    assignments,
		audit:          audit,
		enforceEnabled: enforceEnabled,
	}
}

func (s *accessService) Authorize(ctx context.Context, identity domain.Identity, nodeID domain.NodeID) (*domain.Node, error) {
	node, err := s.nodes.GetByID(ctx, nodeID)
	if err != nil {
		if errors.Is(err, domain.ErrNodeNotFound) {
			s.audit.Security(ctx, domain.AuditWarn, "Node access attempt failed: Node not found", map[string]interface{}{
				"username": identity.Username,
				"nodeId":   string(nodeID),
			})
			return nil, domain.ErrNodeNotFound
		}
		return nil, err
	}

	// Enablement is advisory by default; enforcement is opt-in.
	if s.enforceEnabled && !node.Enabled {
		s.audit.Security(ctx, domain.AuditWarn, "Node access attempt failed: Node disabled", map[string]interface{}{
			"username": identity.Username,
			"nodeId":   string(nodeID),
		})
		return nil, domain.ErrNodeDisabled
	}

	if identity.IsAdmin() {
		s.audit.Security(ctx, domain.AuditInfo, "Admin accessed node", map[string]interface{}{
			"username": identity.Username,
			"nodeId":   string(nodeID),
		})
		return node, nil
	}

	entries, err := s.assignments.ListForUser(ctx, identity.Username)
	if err != nil {
		return nil, err
	}

	if !domain.HasNode(entries, nodeID) {
		s.audit.Security(ctx, domain.AuditWarn, "Node access attempt failed: Forbidden", map[string]interface{}{
			"username": identity.Username,
			"nodeId":   string(nodeID),
		})
		return nil, domain.ErrNodeAccessDenied
	}

	s.audit.Security(ctx, domain.AuditInfo, "User accessed node", map[string]interface{}{
		"username": identity.Username,
		"nodeId":   string(nodeID),
	})
	return node, nil
}
