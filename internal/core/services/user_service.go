package services

import (
	"context"
	"fmt"

	"nodegate/internal/core/domain"
	"nodegate/internal/core/ports"
	"nodegate/pkg/validation"

	"golang.org/x/crypto/bcrypt"
)

type userService struct {
	users       ports.UserRepository
	assignments ports.AssignmentRepository
	audit       ports.AuditService
}

func NewUserService(users ports.UserRepository, assignments ports.AssignmentRepository, audit ports.AuditService) ports.UserService {
	return &userService{
		users:       users,
		assignments: assignments,
		audit:       audit,
	}
}

func (s *userService) List(ctx context.Context) ([]domain.UserSummary, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	table, err := s.assignments.All(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.UserSummary, 0, len(users))
	for _, u := range users {
		entries := table[u.Username]
		if entries == nil {
			entries = []domain.NodeAssignment{}
		}
		summaries = append(summaries, domain.UserSummary{
			Username:      u.Username,
			Role:          u.Role,
			AssignedNodes: entries,
		})
	}
	return summaries, nil
}

func (s *userService) Create(ctx context.Context, username, password string, role domain.Role) (*domain.UserSummary, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if role != domain.RoleAdmin && role != domain.RoleUser {
		return nil, fmt.Errorf("invalid role %q", role)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username: username,
		Password: string(hashed),
		Role:     role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.audit.Event(ctx, domain.AuditInfo, "User added", map[string]interface{}{
		"username": username,
		"role":     string(role),
	})
	return &domain.UserSummary{Username: username, Role: role, AssignedNodes: []domain.NodeAssignment{}}, nil
}

func (s *userService) UpdateRole(ctx context.Context, actor domain.Identity, username string, role domain.Role) error {
	if role != domain.RoleAdmin && role != domain.RoleUser {
		return fmt.Errorf("invalid role %q", role)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	s.audit.Event(ctx, domain.AuditInfo, "User role updated", map[string]interface{}{
		"username": username,
		"newRole":  string(role),
	})
	s.audit.Security(ctx, domain.AuditInfo, "User role updated", map[string]interface{}{
		"admin":      actor.Username,
		"targetUser": username,
		"newRole":    string(role),
	})
	return nil
}

func (s *userService) UpdatePassword(ctx context.Context, actor domain.Identity, username, password string) error {
	if err := validation.ValidatePassword(password); err != nil {
		return err
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hashed)
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	s.audit.Event(ctx, domain.AuditInfo, "User password updated", map[string]interface{}{"username": username})
	s.audit.Security(ctx, domain.AuditInfo, "User password updated", map[string]interface{}{
		"admin":      actor.Username,
		"targetUser": username,
	})
	return nil
}

// ReplaceAssignments overwrites the user's full assignment list, the
// last-write-wins semantics the admin panel expects.
func (s *userService) ReplaceAssignments(ctx context.Context, username string, entries []domain.NodeAssignment) error {
	if entries == nil {
		entries = []domain.NodeAssignment{}
	}
	if err := s.assignments.ReplaceForUser(ctx, username, entries); err != nil {
		return err
	}

	nodeIDs := make([]string, 0, len(entries))
	for _, a := range entries {
		nodeIDs = append(nodeIDs, string(a.NodeID))
	}
	s.audit.Event(ctx, domain.AuditInfo, "User node assignments updated", map[string]interface{}{
		"username":      username,
		"assignedNodes": nodeIDs,
	})
	return nil
}

// Delete removes the account and cascades its assignment entries.
func (s *userService) Delete(ctx context.Context, actor domain.Identity, username string) error {
	if err := s.users.Delete(ctx, username); err != nil {
		return err
	}
	if err := s.assignments.RemoveUser(ctx, username); err != nil {
		return err
	}

	s.audit.Event(ctx, domain.AuditInfo, "User deleted", map[string]interface{}{"username": username})
	s.audit.Security(ctx, domain.AuditInfo, "User deleted", map[string]interface{}{
		"admin":      actor.Username,
		"targetUser": username,
	})
	return nil
}
