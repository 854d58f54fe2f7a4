package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"nodegate/internal/core/domain"

	"go.uber.org/zap/zaptest"
)

func newAuthFixture(t *testing.T) (*memUserRepo, AuthService, TokenService) {
	users := &memUserRepo{}
	audit := NewAuditService(&memAuditRepo{}, &memAuditRepo{}, &memAuditRepo{}, zaptest.NewLogger(t).Sugar())
	tokens := NewTokenService("test-secret", 24*time.Hour)
	return users, NewAuthService(users, tokens, audit), tokens
}

func TestAuthService_FreshStoreBootstrapsAdmin(t *testing.T) {
	_, auth, tokens := newAuthFixture(t)

	if err := auth.EnsureDefaultAdmin(context.Background()); err != nil {
		t.Fatalf("EnsureDefaultAdmin() error = %v", err)
	}

	token, role, err := auth.Login(context.Background(), "admin", "admin")
	if err != nil {
		t.Fatalf("Login(admin, admin) error = %v", err)
	}
	if role != domain.RoleAdmin {
		t.Errorf("role = %q, want admin", role)
	}

	claims, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("issued token did not verify: %v", err)
	}
	if claims.Role != domain.RoleAdmin {
		t.Errorf("token role = %q, want admin", claims.Role)
	}
}

func TestAuthService_BootstrapSkippedWhenUsersExist(t *testing.T) {
	users, auth, _ := newAuthFixture(t)
	users.Create(context.Background(), &domain.User{Username: "op", Password: "x", Role: domain.RoleUser})

	if err := auth.EnsureDefaultAdmin(context.Background()); err != nil {
		t.Fatalf("EnsureDefaultAdmin() error = %v", err)
	}

	all, _ := users.List(context.Background())
	if len(all) != 1 {
		t.Errorf("user count = %d, want 1 (no admin bootstrapped)", len(all))
	}
}

func TestAuthService_InvalidCredentials(t *testing.T) {
	_, auth, _ := newAuthFixture(t)
	if err := auth.EnsureDefaultAdmin(context.Background()); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "admin", "nope"},
		{"unknown user", "ghost", "admin"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := auth.Login(context.Background(), tc.username, tc.password)
			if !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}
