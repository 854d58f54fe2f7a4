package services

import (
	"context"
	"errors"

	"nodegate/internal/core/domain"
	"nodegate/internal/core/ports"

	"golang.org/x/crypto/bcrypt"
)

// AuthService authenticates operators against the credential store and
// hands out session tokens.
type AuthService interface {
	Login(ctx context.Context, username, password string) (token string, role domain.Role, err error)
	// EnsureDefaultAdmin creates the admin/admin account when the
	// credential store is empty, so a fresh deployment is reachable.
	EnsureDefaultAdmin(ctx context.Context) error
}

type authService struct {
	users  ports.UserRepository
	tokens TokenService
	audit  ports.AuditService
}

func NewAuthService(users ports.UserRepository, tokens TokenService, audit ports.AuditService) AuthService {
	return &authService{
		users:  users,
		tokens: tokens,
		audit:  audit,
	}
}

func (s *authService) Login(ctx context.Context, username, password string) (string, domain.Role, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.recordFailure(ctx, username)
			return "", "", domain.ErrInvalidCredentials
		}
		return "", "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.recordFailure(ctx, username)
		return "", "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Username, user.Role)
	if err != nil {
		return "", "", err
	}

	s.audit.Event(ctx, domain.AuditInfo, "User logged in successfully", map[string]interface{}{"username": user.Username})
	s.audit.Security(ctx, domain.AuditInfo, "Successful login", map[string]interface{}{"username": user.Username})
	return token, user.Role, nil
}

func (s *authService) recordFailure(ctx context.Context, username string) {
	s.audit.Event(ctx, domain.AuditWarn, "Failed login attempt", map[string]interface{}{"username": username})
	s.audit.Security(ctx, domain.AuditWarn, "Failed login attempt", map[string]interface{}{"username": username})
}

func (s *authService) EnsureDefaultAdmin(ctx context.Context) error {
	users, err := s.users.List(ctx)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &domain.User{
		Username: "admin",
		Password: string(hashed),
		Role:     domain.RoleAdmin,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}

	s.audit.Event(ctx, domain.AuditInfo, "Default admin created", map[string]interface{}{"username": "admin"})
	return nil
}
