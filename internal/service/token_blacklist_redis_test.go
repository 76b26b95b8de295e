package service

import (
	"context"
	"testing"
	"time"
)

func TestRedisTokenBlacklistExpiresWithToken(t *testing.T) {
	ctx := context.Background()
	server, client := newRedisClientForTest(t)
	bl := NewRedisTokenBlacklist(client, "bl_test")

	if err := bl.Revoke(ctx, "tok", "jti-1", "usergamex-1", time.Now().Add(2*time.Second)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	revoked, err := bl.IsRevoked(ctx, "tok")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if !revoked {
		t.Fatal("expected token revoked")
	}
	if ttl := server.TTL(bl.key("tok")); ttl <= 0 || ttl > 2*time.Second {
		t.Fatalf("unexpected ttl %s", ttl)
	}

	server.FastForward(3 * time.Second)
	revoked, err = bl.IsRevoked(ctx, "tok")
	if err != nil {
		t.Fatalf("is revoked after ttl: %v", err)
	}
	if revoked {
		t.Fatal("expected entry gone after token expiry")
	}
}

func TestRedisTokenBlacklistSkipsExpiredTokens(t *testing.T) {
	ctx := context.Background()
	server, client := newRedisClientForTest(t)
	bl := NewRedisTokenBlacklist(client, "")

	if err := bl.Revoke(ctx, "old", "", "", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if keys := server.Keys(); len(keys) != 0 {
		t.Fatalf("expected no keys for expired token, got %v", keys)
	}
	if n, err := bl.PurgeExpired(ctx); err != nil || n != 0 {
		t.Fatalf("purge should be a no-op: n=%d err=%v", n, err)
	}
}

func TestRedisTokenBlacklistLookupErrorSurfaces(t *testing.T) {
	server, client := newRedisClientForTest(t)
	bl := NewRedisTokenBlacklist(client, "bl_test")
	server.Close()
	if _, err := bl.IsRevoked(context.Background(), "tok"); err == nil {
		t.Fatal("expected error when redis is down")
	}
}
