package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gamexhub/gamex-panel/internal/domain"
)

func TestAuthServiceRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	account, err := f.auth.Register(ctx, domain.RoleUser, RegisterInput{Email: "a@x.com", Username: "alice", Password: "Passw0rd"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !strings.HasPrefix(account.UserID, "usergamex-") || account.Role != domain.RoleUser {
		t.Fatalf("unexpected account: %+v", account)
	}
	if account.PasswordHash == "Passw0rd" {
		t.Fatal("password stored in plaintext")
	}
	if err := f.hasher.Verify(account.PasswordHash, "Passw0rd"); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}

	res, err := f.auth.Login(ctx, "a@x.com", "Passw0rd")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := f.tokens.Authenticate(ctx, res.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if claims.UserID != account.UserID || claims.Role != domain.RoleUser {
		t.Fatalf("unexpected claims: %+v", claims.Identity)
	}
}

func TestAuthServiceLoginFailures(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	if _, err := f.auth.Register(ctx, domain.RoleUser, RegisterInput{Email: "a@x.com", Username: "alice", Password: "Passw0rd"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "wrong password", email: "a@x.com", password: "Wrong123"},
		{name: "unknown email", email: "nobody@x.com", password: "Passw0rd"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := f.auth.Login(ctx, tc.email, tc.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected invalid credentials, got %v", err)
			}
			if res != nil {
				t.Fatal("no token may be issued on failure")
			}
		})
	}
}

func TestAuthServiceRegisterRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	if _, err := f.auth.Register(ctx, domain.RoleUser, RegisterInput{Email: "a@x.com", Username: "alice", Password: "Passw0rd"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	for _, in := range []RegisterInput{
		{Email: "a@x.com", Username: "other", Password: "Passw0rd"},
		{Email: "b@x.com", Username: "alice", Password: "Passw0rd"},
	} {
		if _, err := f.auth.Register(ctx, domain.RoleAdmin, in); !errors.Is(err, ErrDuplicateAccount) {
			t.Fatalf("expected duplicate for %+v, got %v", in, err)
		}
	}
	if _, err := f.auth.Register(ctx, domain.RoleSuperadmin, RegisterInput{Email: "c@x.com", Username: "c", Password: "Passw0rd"}); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected superadmin registration to be refused, got %v", err)
	}
}

func TestAuthServiceLoginAsEnforcesRole(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	if _, err := f.auth.Register(ctx, domain.RoleUser, RegisterInput{Email: "u@x.com", Username: "u", Password: "Passw0rd"}); err != nil {
		t.Fatalf("register user: %v", err)
	}
	admin, err := f.auth.Register(ctx, domain.RoleAdmin, RegisterInput{Email: "boss@x.com", Username: "boss", Password: "Passw0rd"})
	if err != nil {
		t.Fatalf("register admin: %v", err)
	}
	if !strings.HasPrefix(admin.UserID, "admingamex-") {
		t.Fatalf("unexpected admin id %q", admin.UserID)
	}

	if _, err := f.auth.LoginAs(ctx, domain.RoleAdmin, "u@x.com", "Passw0rd"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected user to be unknown on admin login, got %v", err)
	}
	if _, err := f.auth.LoginAs(ctx, domain.RoleAdmin, "boss@x.com", "nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected bad password, got %v", err)
	}
	res, err := f.auth.LoginAs(ctx, domain.RoleAdmin, "boss@x.com", "Passw0rd")
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	claims, err := f.tokens.Authenticate(ctx, res.Token)
	if err != nil || claims.Role != domain.RoleAdmin {
		t.Fatalf("expected admin claims, got %+v err=%v", claims, err)
	}
}

func TestAuthServiceBootstrapSuperadminOnce(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	root, err := f.auth.BootstrapSuperadmin(ctx, RegisterInput{Email: "root@x.com", Username: "root", Password: "Passw0rd"})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if !strings.HasPrefix(root.UserID, "superadmingamex-") || root.Role != domain.RoleSuperadmin {
		t.Fatalf("unexpected superadmin: %+v", root)
	}
	if _, err := f.auth.BootstrapSuperadmin(ctx, RegisterInput{Email: "root2@x.com", Username: "root2", Password: "Passw0rd"}); !errors.Is(err, ErrSuperadminExists) {
		t.Fatalf("expected second superadmin refused, got %v", err)
	}
	if _, err := f.auth.LoginAs(ctx, domain.RoleSuperadmin, "root@x.com", "Passw0rd"); err != nil {
		t.Fatalf("superadmin login: %v", err)
	}
}

func TestAuthServiceLogoutRevokesToken(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	if _, err := f.auth.Register(ctx, domain.RoleUser, RegisterInput{Email: "a@x.com", Username: "alice", Password: "Passw0rd"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	res, err := f.auth.Login(ctx, "a@x.com", "Passw0rd")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := f.tokens.Authenticate(ctx, res.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if err := f.auth.Logout(ctx, res.Token, claims); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := f.tokens.Authenticate(ctx, res.Token); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected revoked after logout, got %v", err)
	}
}
