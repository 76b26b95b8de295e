package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gamexhub/gamex-panel/internal/domain"
	"github.com/gamexhub/gamex-panel/internal/observability"
	"github.com/gamexhub/gamex-panel/internal/repository"
	"github.com/gamexhub/gamex-panel/internal/security"
)

// TokenBlacklist records logged-out access tokens. A revoked token stays
// revoked until its own expiry; PurgeExpired only drops entries past that point.
type TokenBlacklist interface {
	Revoke(ctx context.Context, rawToken, tokenID, userID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, rawToken string) (bool, error)
	PurgeExpired(ctx context.Context) (int64, error)
}

type GormTokenBlacklist struct {
	repo      repository.BlacklistRepository
	threshold int64
	logger    *slog.Logger
	now       func() time.Time
}

// NewGormTokenBlacklist returns a SQL-backed blacklist. When an insert sees at
// least threshold rows, expired rows are collected before returning.
func NewGormTokenBlacklist(repo repository.BlacklistRepository, threshold int64, logger *slog.Logger) *GormTokenBlacklist {
	if logger == nil {
		logger = slog.Default()
	}
	return &GormTokenBlacklist{repo: repo, threshold: threshold, logger: logger, now: time.Now}
}

func (b *GormTokenBlacklist) Revoke(ctx context.Context, rawToken, tokenID, userID string, expiresAt time.Time) error {
	err := b.repo.Create(ctx, &domain.BlacklistedToken{
		TokenHash: security.HashToken(rawToken),
		TokenID:   tokenID,
		UserID:    userID,
		ExpiresAt: expiresAt.UTC(),
	})
	if err != nil {
		return err
	}
	if b.threshold <= 0 {
		return nil
	}
	n, err := b.repo.Count(ctx)
	if err != nil {
		b.logger.WarnContext(ctx, "blacklist count failed", "error", err)
		return nil
	}
	if n >= b.threshold {
		removed, err := b.PurgeExpired(ctx)
		if err != nil {
			b.logger.WarnContext(ctx, "inline blacklist gc failed", "error", err)
			return nil
		}
		b.logger.InfoContext(ctx, "inline blacklist gc", "entries", n, "removed", removed)
	}
	return nil
}

func (b *GormTokenBlacklist) IsRevoked(ctx context.Context, rawToken string) (bool, error) {
	return b.repo.Exists(ctx, security.HashToken(rawToken))
}

func (b *GormTokenBlacklist) PurgeExpired(ctx context.Context) (int64, error) {
	removed, err := b.repo.DeleteExpired(ctx, b.now().UTC())
	if err != nil {
		return 0, err
	}
	observability.RecordBlacklistGC(ctx, removed)
	return removed, nil
}

type InMemoryTokenBlacklist struct {
	mu    sync.RWMutex
	store map[string]time.Time
	now   func() time.Time
}

func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{store: make(map[string]time.Time), now: time.Now}
}

func (b *InMemoryTokenBlacklist) Revoke(_ context.Context, rawToken, _, _ string, expiresAt time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.store[security.HashToken(rawToken)] = expiresAt.UTC()
	return nil
}

func (b *InMemoryTokenBlacklist) IsRevoked(_ context.Context, rawToken string) (bool, error) {
	b.mu.RLock()
	_, ok := b.store[security.HashToken(rawToken)]
	b.mu.RUnlock()
	return ok, nil
}

func (b *InMemoryTokenBlacklist) PurgeExpired(ctx context.Context) (int64, error) {
	now := b.now().UTC()
	b.mu.Lock()
	var removed int64
	for hash, expiresAt := range b.store {
		if !now.Before(expiresAt) {
			delete(b.store, hash)
			removed++
		}
	}
	b.mu.Unlock()
	observability.RecordBlacklistGC(ctx, removed)
	return removed, nil
}

func (b *InMemoryTokenBlacklist) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.store)
}
