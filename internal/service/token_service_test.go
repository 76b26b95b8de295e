package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gamexhub/gamex-panel/internal/domain"
)

type failingBlacklist struct{ err error }

func (f failingBlacklist) Revoke(context.Context, string, string, string, time.Time) error {
	return f.err
}
func (f failingBlacklist) IsRevoked(context.Context, string) (bool, error) { return false, f.err }
func (f failingBlacklist) PurgeExpired(context.Context) (int64, error)     { return 0, f.err }

func testAccount() *domain.Account {
	return &domain.Account{UserID: "usergamex-0123456789abcde", Email: "a@x.com", Username: "alice", Role: domain.RoleUser}
}

func TestTokenServiceIssueAuthenticateRevoke(t *testing.T) {
	ctx := context.Background()
	blacklist := NewInMemoryTokenBlacklist()
	svc := NewTokenService(newTestJWTManager(), blacklist)

	token, expiresAt, err := svc.Issue(testAccount())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := svc.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if claims.UserID != "usergamex-0123456789abcde" || claims.Role != domain.RoleUser {
		t.Fatalf("unexpected claims: %+v", claims.Identity)
	}

	if err := svc.Revoke(ctx, token, claims); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := svc.Revoke(ctx, token, claims); err != nil {
		t.Fatalf("second revoke should be harmless: %v", err)
	}
	if _, err := svc.Authenticate(ctx, token); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected revoked, got %v", err)
	}

	// Purging before expiry must keep the entry.
	if n, _ := svc.PurgeExpired(ctx); n != 0 {
		t.Fatalf("expected nothing purged, got %d", n)
	}
	if _, err := svc.Authenticate(ctx, token); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected token to stay revoked after gc, got %v", err)
	}

	blacklist.now = func() time.Time { return expiresAt.Add(time.Second) }
	if n, _ := svc.PurgeExpired(ctx); n != 1 {
		t.Fatalf("expected expired entry purged, got %d", n)
	}
}

func TestTokenServiceAuthenticateFailures(t *testing.T) {
	ctx := context.Background()
	svc := NewTokenService(newTestJWTManager(), NewInMemoryTokenBlacklist())
	if _, err := svc.Authenticate(ctx, "not-a-jwt"); !errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}

	down := errors.New("db down")
	broken := NewTokenService(newTestJWTManager(), failingBlacklist{err: down})
	token, _, err := broken.Issue(testAccount())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	_, err = broken.Authenticate(ctx, token)
	if !errors.Is(err, down) || errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("expected lookup error, got %v", err)
	}
}
