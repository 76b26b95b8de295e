package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gamexhub/gamex-panel/internal/security"
)

// RedisTokenBlacklist stores one key per revoked token with a TTL equal to the
// token's remaining lifetime, so Redis expires entries on its own.
type RedisTokenBlacklist struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedisTokenBlacklist(client redis.UniversalClient, prefix string) *RedisTokenBlacklist {
	if prefix == "" {
		prefix = "gamex:blacklist"
	}
	return &RedisTokenBlacklist{client: client, prefix: prefix, now: time.Now}
}

func (b *RedisTokenBlacklist) Revoke(ctx context.Context, rawToken, tokenID, userID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(b.now())
	if ttl <= 0 {
		return nil
	}
	pipe := b.client.TxPipeline()
	pipe.HSet(ctx, b.key(rawToken), "jti", tokenID, "user_id", userID)
	pipe.Expire(ctx, b.key(rawToken), ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (b *RedisTokenBlacklist) IsRevoked(ctx context.Context, rawToken string) (bool, error) {
	n, err := b.client.Exists(ctx, b.key(rawToken)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// PurgeExpired is a no-op; key TTLs handle expiry.
func (b *RedisTokenBlacklist) PurgeExpired(context.Context) (int64, error) {
	return 0, nil
}

func (b *RedisTokenBlacklist) key(rawToken string) string {
	return b.prefix + ":" + security.HashToken(rawToken)
}
