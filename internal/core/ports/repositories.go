package ports

import (
	"context"

	"nodegate/internal/core/domain"
)

// NodeRepository stores the node collection. Implementations load and
// replace the collection wholesale under a per-collection lock.
type NodeRepository interface {
	List(ctx context.Context) ([]domain.Node, error)
	GetByID(ctx context.Context, id domain.NodeID) (*domain.Node, error)
	Create(ctx context.Context, node *domain.Node) error
	Update(ctx context.Context, node *domain.Node) error
	Delete(ctx context.Context, id domain.NodeID) error
}

type UserRepository interface {
	List(ctx context.Context) ([]domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, username string) error
}

type AssignmentRepository interface {
	All(ctx context.Context) (domain.AssignmentTable, error)
	ListForUser(ctx context.Context, username string) ([]domain.NodeAssignment, error)
	ReplaceForUser(ctx context.Context, username string, entries []domain.NodeAssignment) error
	RemoveUser(ctx context.Context, username string) error
	// RemoveNode drops every assignment referencing the node, for all
	// users. Called when a node is deleted.
	RemoveNode(ctx context.Context, id domain.NodeID) error
}

// AuditRepository is one append-only journal. The factory hands out one
// instance per journal (security audit, server events, command history).
type AuditRepository interface {
	Append(ctx context.Context, record domain.AuditRecord) error
	List(ctx context.Context) ([]domain.AuditRecord, error)
}
