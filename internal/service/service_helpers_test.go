package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gamexhub/gamex-panel/internal/repository"
	"github.com/gamexhub/gamex-panel/internal/security"
)

const (
	testAccessSecret = "abcdefghijklmnopqrstuvwxyz123456"
	testResetSecret  = "abcdefghijklmnopqrstuvwxyz654321"
)

func newDBForTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := repository.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestJWTManager() *security.JWTManager {
	return security.NewJWTManager("gamex", "gamex-panel", testAccessSecret, testResetSecret, time.Hour, time.Hour)
}

func newTestHasher() *security.PasswordHasher {
	return security.NewPasswordHasher(4)
}

type authFixture struct {
	accounts  repository.AccountRepository
	blacklist *InMemoryTokenBlacklist
	tokens    *TokenService
	auth      *AuthService
	hasher    *security.PasswordHasher
	jwtMgr    *security.JWTManager
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	accounts := repository.NewAccountRepository(newDBForTest(t))
	blacklist := NewInMemoryTokenBlacklist()
	jwtMgr := newTestJWTManager()
	hasher := newTestHasher()
	tokens := NewTokenService(jwtMgr, blacklist)
	return &authFixture{
		accounts:  accounts,
		blacklist: blacklist,
		tokens:    tokens,
		auth:      NewAuthService(accounts, hasher, tokens, nil),
		hasher:    hasher,
		jwtMgr:    jwtMgr,
	}
}

func strPtr(v string) *string { return &v }

func newRedisClientForTest(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{server.Addr()}})
	t.Cleanup(func() { _ = client.Close() })
	return server, client
}
