package ports

import (
	"context"

	"nodegate/internal/core/domain"
)

// AuditService records authorization decisions and administrative
// mutations. Recording never fails the caller: persistence errors are
// logged and swallowed.
type AuditService interface {
	// Security appends to the security audit journal.
	Security(ctx context.Context, level domain.AuditLevel, message string, details map[string]interface{})
	// Event appends to the server event journal.
	Event(ctx context.Context, level domain.AuditLevel, message string, details map[string]interface{})
	// Command appends to the command history journal.
	Command(ctx context.Context, details map[string]interface{})

	SecurityLog(ctx context.Context) ([]domain.AuditRecord, error)
	EventLog(ctx context.Context) ([]domain.AuditRecord, error)
	CommandLog(ctx context.Context) ([]domain.AuditRecord, error)
}

// AccessService is the authorization guard: it decides whether an
// identity may reach a node and returns the resolved node on ALLOW.
type AccessService interface {
	Authorize(ctx context.Context, identity domain.Identity, nodeID domain.NodeID) (*domain.Node, error)
}

type NodeService interface {
	ListForIdentity(ctx context.Context, identity domain.Identity) ([]domain.Node, error)
	Create(ctx context.Context, name, apiURL, wsURL string) (*domain.Node, error)
	Update(ctx context.Context, id domain.NodeID, name, apiURL, wsURL string) (*domain.Node, error)
	Delete(ctx context.Context, id domain.NodeID) error
	GetByID(ctx context.Context, id domain.NodeID) (*domain.Node, error)
}

type UserService interface {
	List(ctx context.Context) ([]domain.UserSummary, error)
	Create(ctx context.Context, username, password string, role domain.Role) (*domain.UserSummary, error)
	UpdateRole(ctx context.Context, actor domain.Identity, username string, role domain.Role) error
	UpdatePassword(ctx context.Context, actor domain.Identity, username, password string) error
	ReplaceAssignments(ctx context.Context, username string, entries []domain.NodeAssignment) error
	Delete(ctx context.Context, actor domain.Identity, username string) error
}
