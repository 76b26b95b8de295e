package service

import (
	"context"

	"github.com/gamexhub/gamex-panel/internal/domain"
	"github.com/gamexhub/gamex-panel/internal/repository"
	"github.com/gamexhub/gamex-panel/internal/security"
)

type AuthServiceInterface interface {
	Register(ctx context.Context, role domain.Role, in RegisterInput) (*domain.Account, error)
	BootstrapSuperadmin(ctx context.Context, in RegisterInput) (*domain.Account, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	LoginAs(ctx context.Context, role domain.Role, email, password string) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string, claims *security.Claims) error
}

type AccountServiceInterface interface {
	Profile(ctx context.Context, userID string) (*domain.Account, error)
	UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) error
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	List(ctx context.Context, scope ManagementScope, opts ListOptions) (repository.PageResult[domain.Account], error)
	Find(ctx context.Context, scope ManagementScope, lookup AccountLookup) (*domain.Account, error)
	Update(ctx context.Context, scope ManagementScope, userID string, in AccountUpdate) error
	Delete(ctx context.Context, scope ManagementScope, userID string) error
}

type PasswordResetServiceInterface interface {
	RequestReset(ctx context.Context, email string) error
	Redeem(ctx context.Context, token, newPassword string) error
}

type GameServiceInterface interface {
	Create(ctx context.Context, in GameInput) (*domain.Game, error)
	List(ctx context.Context) ([]domain.Game, error)
	Get(ctx context.Context, id uint) (*domain.Game, error)
	Update(ctx context.Context, id uint, in GameUpdate) (*domain.Game, error)
	Delete(ctx context.Context, id uint) error
}

// AccessTokenAuthenticator is what the HTTP auth middleware needs.
type AccessTokenAuthenticator interface {
	Authenticate(ctx context.Context, raw string) (*security.Claims, error)
}

// Maintenance jobs run by the scheduler and the CLI.
type BlacklistPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type ImageCleaner interface {
	Reconcile(ctx context.Context) ([]string, error)
}

var (
	_ AuthServiceInterface          = (*AuthService)(nil)
	_ AccountServiceInterface       = (*AccountService)(nil)
	_ PasswordResetServiceInterface = (*PasswordResetService)(nil)
	_ GameServiceInterface          = (*GameService)(nil)
	_ AccessTokenAuthenticator      = (*TokenService)(nil)
	_ BlacklistPurger               = (*TokenService)(nil)
	_ ImageCleaner                  = (*ImageReconciler)(nil)
	_ TokenBlacklist                = (*GormTokenBlacklist)(nil)
	_ TokenBlacklist                = (*RedisTokenBlacklist)(nil)
	_ TokenBlacklist                = (*InMemoryTokenBlacklist)(nil)
)
