package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gamexhub/gamex-panel/internal/domain"
	"github.com/gamexhub/gamex-panel/internal/observability"
	"github.com/gamexhub/gamex-panel/internal/repository"
	"github.com/gamexhub/gamex-panel/internal/security"
)

type RegisterInput struct {
	Email    string
	Username string
	Password string
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Account   *domain.Account
}

type AuthService struct {
	accounts repository.AccountRepository
	hasher   *security.PasswordHasher
	tokens   *TokenService
	logger   *slog.Logger
}

func NewAuthService(accounts repository.AccountRepository, hasher *security.PasswordHasher, tokens *TokenService, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{accounts: accounts, hasher: hasher, tokens: tokens, logger: logger}
}

// Register creates a user or admin account with a fresh role-prefixed id.
func (s *AuthService) Register(ctx context.Context, role domain.Role, in RegisterInput) (*domain.Account, error) {
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return nil, ErrInvalidRole
	}
	account, err := s.newAccount(ctx, role, in)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateAccount) {
			return nil, ErrDuplicateAccount
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return account, nil
}

// BootstrapSuperadmin creates the single superadmin account.
func (s *AuthService) BootstrapSuperadmin(ctx context.Context, in RegisterInput) (*domain.Account, error) {
	account, err := s.newAccount(ctx, domain.RoleSuperadmin, in)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.CreateSuperadmin(ctx, account); err != nil {
		switch {
		case errors.Is(err, repository.ErrSuperadminExists):
			return nil, ErrSuperadminExists
		case errors.Is(err, repository.ErrDuplicateAccount):
			return nil, ErrDuplicateAccount
		}
		return nil, fmt.Errorf("create superadmin: %w", err)
	}
	return account, nil
}

func (s *AuthService) newAccount(ctx context.Context, role domain.Role, in RegisterInput) (*domain.Account, error) {
	email := strings.TrimSpace(in.Email)
	username := strings.TrimSpace(in.Username)
	taken, err := s.accounts.ExistsOther(ctx, email, username, "")
	if err != nil {
		return nil, fmt.Errorf("check duplicates: %w", err)
	}
	if taken {
		return nil, ErrDuplicateAccount
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	return &domain.Account{
		UserID:       security.NewAccountID(role),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	}, nil
}

// Login authenticates any account by email. An unknown email and a wrong
// password both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	account, err := s.accounts.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			observability.RecordAuthLogin(ctx, "user", "unknown_email")
			return nil, ErrInvalidCredentials
		}
		observability.RecordAuthLogin(ctx, "user", "error")
		return nil, err
	}
	return s.finishLogin(ctx, "user", account, password)
}

// LoginAs authenticates only accounts holding role. An email with no such
// account yields ErrAccountNotFound; a wrong password ErrInvalidCredentials.
func (s *AuthService) LoginAs(ctx context.Context, role domain.Role, email, password string) (*LoginResult, error) {
	surface := string(role)
	account, err := s.accounts.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil && !errors.Is(err, repository.ErrAccountNotFound) {
		observability.RecordAuthLogin(ctx, surface, "error")
		return nil, err
	}
	if account == nil || account.Role != role {
		observability.RecordAuthLogin(ctx, surface, "unknown_email")
		return nil, ErrAccountNotFound
	}
	return s.finishLogin(ctx, surface, account, password)
}

func (s *AuthService) finishLogin(ctx context.Context, surface string, account *domain.Account, password string) (*LoginResult, error) {
	if err := s.hasher.Verify(account.PasswordHash, password); err != nil {
		if errors.Is(err, security.ErrPasswordMismatch) {
			observability.RecordAuthLogin(ctx, surface, "bad_password")
			return nil, ErrInvalidCredentials
		}
		observability.RecordAuthLogin(ctx, surface, "error")
		return nil, err
	}
	token, expiresAt, err := s.tokens.Issue(account)
	if err != nil {
		observability.RecordAuthLogin(ctx, surface, "error")
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	observability.RecordAuthLogin(ctx, surface, "success")
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Account: account}, nil
}

func (s *AuthService) Logout(ctx context.Context, rawToken string, claims *security.Claims) error {
	if err := s.tokens.Revoke(ctx, rawToken, claims); err != nil {
		observability.RecordAuthLogout(ctx, "error")
		return fmt.Errorf("revoke token: %w", err)
	}
	observability.RecordAuthLogout(ctx, "success")
	return nil
}
