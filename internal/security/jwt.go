package security

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gamexhub/gamex-panel/internal/domain"
)

const (
	TokenTypeAccess        = "access"
	TokenTypePasswordReset = "password_reset"
)

var ErrUnexpectedTokenType = errors.New("unexpected token type")

type Identity struct {
	UserID   string      `json:"user_id"`
	Email    string      `json:"email"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
}

type Claims struct {
	TokenType string `json:"token_type"`
	Identity
	jwt.RegisteredClaims
}

type ResetClaims struct {
	TokenType       string `json:"token_type"`
	UserID          string `json:"user_id"`
	PasswordVersion int64  `json:"pwv"`
	jwt.RegisteredClaims
}

// JWTManager signs every session token with one secret and carries the role as
// a claim; routes decide which roles they admit. Reset tokens use their own secret.
type JWTManager struct {
	issuer       string
	audience     string
	accessSecret []byte
	resetSecret  []byte
	accessTTL    time.Duration
	resetTTL     time.Duration
	now          func() time.Time
}

func NewJWTManager(issuer, audience, accessSecret, resetSecret string, accessTTL, resetTTL time.Duration) *JWTManager {
	return &JWTManager{
		issuer:       issuer,
		audience:     audience,
		accessSecret: []byte(accessSecret),
		resetSecret:  []byte(resetSecret),
		accessTTL:    accessTTL,
		resetTTL:     resetTTL,
		now:          time.Now,
	}
}

func (m *JWTManager) AccessTTL() time.Duration { return m.accessTTL }

func (m *JWTManager) SignAccessToken(id Identity) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.accessTTL)
	claims := Claims{
		TokenType: TokenTypeAccess,
		Identity:  id,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   id.UserID,
			Audience:  []string{m.audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.accessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (m *JWTManager) SignResetToken(userID string, passwordVersion int64) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.resetTTL)
	claims := ResetClaims{
		TokenType:       TokenTypePasswordReset,
		UserID:          userID,
		PasswordVersion: passwordVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID,
			Audience:  []string{m.audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.resetSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (m *JWTManager) ParseAccessToken(raw string) (*Claims, error) {
	claims := &Claims{}
	if err := m.parse(raw, claims, m.accessSecret); err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeAccess {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedTokenType, claims.TokenType)
	}
	if claims.UserID == "" || claims.UserID != claims.Subject || !claims.Role.Valid() {
		return nil, errors.New("invalid identity claims")
	}
	return claims, nil
}

func (m *JWTManager) ParseResetToken(raw string) (*ResetClaims, error) {
	claims := &ResetClaims{}
	if err := m.parse(raw, claims, m.resetSecret); err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypePasswordReset {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedTokenType, claims.TokenType)
	}
	if claims.UserID == "" || claims.UserID != claims.Subject {
		return nil, errors.New("invalid reset claims")
	}
	return claims, nil
}

func (m *JWTManager) parse(raw string, claims jwt.Claims, secret []byte) error {
	tok, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing algorithm")
		}
		return secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithAudience(m.audience), jwt.WithExpirationRequired(), jwt.WithTimeFunc(m.now))
	if err != nil {
		return err
	}
	if !tok.Valid {
		return errors.New("invalid token")
	}
	return nil
}

// HashToken returns the hex sha256 of a raw token, the key under which
// revoked tokens are stored.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
