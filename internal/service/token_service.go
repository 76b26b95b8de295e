package service

import (
	"context"
	"errors"
	"time"

	"github.com/gamexhub/gamex-panel/internal/domain"
	"github.com/gamexhub/gamex-panel/internal/observability"
	"github.com/gamexhub/gamex-panel/internal/security"
)

type TokenService struct {
	jwtMgr    *security.JWTManager
	blacklist TokenBlacklist
}

func NewTokenService(jwtMgr *security.JWTManager, blacklist TokenBlacklist) *TokenService {
	return &TokenService{jwtMgr: jwtMgr, blacklist: blacklist}
}

// Issue signs an access token whose role claim is the account's stored role.
func (s *TokenService) Issue(account *domain.Account) (string, time.Time, error) {
	return s.jwtMgr.SignAccessToken(security.Identity{
		UserID:   account.UserID,
		Email:    account.Email,
		Username: account.Username,
		Role:     account.Role,
	})
}

// Authenticate checks the blacklist before the signature. It returns
// ErrTokenRevoked, ErrInvalidAccessToken, or the blacklist lookup error.
func (s *TokenService) Authenticate(ctx context.Context, raw string) (*security.Claims, error) {
	revoked, err := s.blacklist.IsRevoked(ctx, raw)
	if err != nil {
		observability.RecordAccessTokenValidation(ctx, "lookup_error")
		return nil, err
	}
	if revoked {
		observability.RecordAccessTokenValidation(ctx, "revoked")
		return nil, ErrTokenRevoked
	}
	claims, err := s.jwtMgr.ParseAccessToken(raw)
	if err != nil {
		observability.RecordAccessTokenValidation(ctx, "invalid")
		return nil, errors.Join(ErrInvalidAccessToken, err)
	}
	observability.RecordAccessTokenValidation(ctx, "valid")
	return claims, nil
}

// Revoke blacklists raw until the expiry carried in claims. Revoking the same
// token twice is harmless.
func (s *TokenService) Revoke(ctx context.Context, raw string, claims *security.Claims) error {
	expiresAt := time.Now().Add(s.jwtMgr.AccessTTL())
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return s.blacklist.Revoke(ctx, raw, claims.ID, claims.UserID, expiresAt)
}

func (s *TokenService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.blacklist.PurgeExpired(ctx)
}
