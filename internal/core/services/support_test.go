package services

import (
	"context"
	"sync"

	"nodegate/internal/core/domain"
	"nodegate/internal/core/ports"
)

// In-memory repositories backing the service tests.

type memNodeRepo struct {
	mu    sync.Mutex
	nodes []domain.Node
}

func (r *memNodeRepo) List(ctx context.Context) ([]domain.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Node, len(r.nodes))
	copy(out, r.nodes)
	return out, nil
}

func (r *memNodeRepo) GetByID(ctx context.Context, id domain.NodeID) (*domain.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.nodes {
		if n.ID == id {
			node := n
			return &node, nil
		}
	}
	return nil, domain.ErrNodeNotFound
}

func (r *memNodeRepo) Create(ctx context.Context, node *domain.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes = append(r.nodes, *node)
	return nil
}

func (r *memNodeRepo) Update(ctx context.Context, node *domain.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.nodes {
		if r.nodes[i].ID == node.ID {
			r.nodes[i] = *node
			return nil
		}
	}
	return domain.ErrNodeNotFound
}

func (r *memNodeRepo) Delete(ctx context.Context, id domain.NodeID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.nodes {
		if r.nodes[i].ID == id {
			r.nodes = append(r.nodes[:i], r.nodes[i+1:]...)
			return nil
		}
	}
	return domain.ErrNodeNotFound
}

type memUserRepo struct {
	mu    sync.Mutex
	users []domain.User
}

func (r *memUserRepo) List(ctx context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, len(r.users))
	copy(out, r.users)
	return out, nil
}

func (r *memUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			user := u
			return &user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return domain.ErrUserExists
		}
	}
	r.users = append(r.users, *user)
	return nil
}

func (r *memUserRepo) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].Username == user.Username {
			r.users[i] = *user
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (r *memUserRepo) Delete(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].Username == username {
			r.users = append(r.users[:i], r.users[i+1:]...)
			return nil
		}
	}
	return domain.ErrUserNotFound
}

type memAssignmentRepo struct {
	mu    sync.Mutex
	table domain.AssignmentTable
}

func newMemAssignmentRepo() *memAssignmentRepo {
	return &memAssignmentRepo{table: domain.AssignmentTable{}}
}

func (r *memAssignmentRepo) All(ctx context.Context) (domain.AssignmentTable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := domain.AssignmentTable{}
	for k, v := range r.table {
		out[k] = append([]domain.NodeAssignment(nil), v...)
	}
	return out, nil
}

func (r *memAssignmentRepo) ListForUser(ctx context.Context, username string) ([]domain.NodeAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.NodeAssignment(nil), r.table[username]...), nil
}

func (r *memAssignmentRepo) ReplaceForUser(ctx context.Context, username string, entries []domain.NodeAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.table[username] = append([]domain.NodeAssignment(nil), entries...)
	return nil
}

func (r *memAssignmentRepo) RemoveUser(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.table, username)
	return nil
}

func (r *memAssignmentRepo) RemoveNode(ctx context.Context, id domain.NodeID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for username, entries := range r.table {
		kept := entries[:0]
		for _, a := range entries {
			if a.NodeID != id {
				kept = append(kept, a)
			}
		}
		r.table[username] = kept
	}
	return nil
}

type memAuditRepo struct {
	mu      sync.Mutex
	records []domain.AuditRecord
}

func (r *memAuditRepo) Append(ctx context.Context, record domain.AuditRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return nil
}

func (r *memAuditRepo) List(ctx context.Context) ([]domain.AuditRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AuditRecord(nil), r.records...), nil
}

func (r *memAuditRepo) lastMessage() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.records) == 0 {
		return ""
	}
	return r.records[len(r.records)-1].Message
}

var _ ports.NodeRepository = (*memNodeRepo)(nil)
var _ ports.UserRepository = (*memUserRepo)(nil)
var _ ports.AssignmentRepository = (*memAssignmentRepo)(nil)
var _ ports.AuditRepository = (*memAuditRepo)(nil)
