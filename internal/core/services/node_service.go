package services

import (
	"context"

	"nodegate/internal/core/domain"
	"nodegate/internal/core/ports"
	"nodegate/pkg/utils"
	"nodegate/pkg/validation"
)

type nodeService struct {
	nodes       ports.NodeRepository
	assignments ports.AssignmentRepository
	audit       ports.AuditService
}

func NewNodeService(nodes ports.NodeRepository, assignments ports.AssignmentRepository, audit ports.AuditService) ports.NodeService {
	return &nodeService{
		nodes:       nodes,
		assignments: assignments,
		audit:       audit,
	}
}

// ListForIdentity returns all nodes with assignedTo usernames for
// admins, and only the assigned subset for regular users.
func (s *nodeService) ListForIdentity(ctx context.Context, identity domain.Identity) ([]domain.Node, error) {
	nodes, err := s.nodes.List(ctx)
	if err != nil {
		return nil, err
	}
	table, err := s.assignments.All(ctx)
	if err != nil {
		return nil, err
	}

	if identity.IsAdmin() {
		for i := range nodes {
			assigned := []string{}
			for username, entries := range table {
				if domain.HasNode(entries, nodes[i].ID) {
					assigned = append(assigned, username)
				}
			}
			nodes[i].AssignedTo = assigned
		}
		return nodes, nil
	}

	entries := table[identity.Username]
	allowed := []domain.Node{}
	for _, n := range nodes {
		if domain.HasNode(entries, n.ID) {
			allowed = append(allowed, n)
		}
	}
	return allowed, nil
}

func (s *nodeService) Create(ctx context.Context, name, apiURL, wsURL string) (*domain.Node, error) {
	if err := validation.ValidateNodeName(name); err != nil {
		return nil, err
	}
	if err := validation.ValidateAPIURL(apiURL); err != nil {
		return nil, err
	}
	if err := validation.ValidateWSURL(wsURL); err != nil {
		return nil, err
	}

	node := &domain.Node{
		ID:      domain.NodeID(utils.GenerateNodeID()),
		Name:    name,
		APIURL:  apiURL,
		WSURL:   wsURL,
		Enabled: true,
	}
	if err := s.nodes.Create(ctx, node); err != nil {
		return nil, err
	}

	s.audit.Event(ctx, domain.AuditInfo, "Node added", map[string]interface{}{
		"nodeId": string(node.ID),
		"name":   node.Name,
	})
	return node, nil
}

func (s *nodeService) Update(ctx context.Context, id domain.NodeID, name, apiURL, wsURL string) (*domain.Node, error) {
	node, err := s.nodes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	node.Name = name
	node.APIURL = apiURL
	node.WSURL = wsURL
	if err := s.nodes.Update(ctx, node); err != nil {
		return nil, err
	}

	s.audit.Event(ctx, domain.AuditInfo, "Node updated", map[string]interface{}{
		"nodeId": string(id),
		"name":   name,
		"apiUrl": apiURL,
		"wsUrl":  wsURL,
	})
	return node, nil
}

// Delete removes the node and cascades: every assignment referencing it,
// for every user, is dropped.
func (s *nodeService) Delete(ctx context.Context, id domain.NodeID) error {
	if err := s.nodes.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.assignments.RemoveNode(ctx, id); err != nil {
		return err
	}

	s.audit.Event(ctx, domain.AuditInfo, "Node deleted", map[string]interface{}{"nodeId": string(id)})
	return nil
}

func (s *nodeService) GetByID(ctx context.Context, id domain.NodeID) (*domain.Node, error) {
	return s.nodes.GetByID(ctx, id)
}
