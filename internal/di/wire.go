//go:build wireinject

package di

import (
	"context"
	"net/http"

	"github.com/google/wire"

	"github.com/gamexhub/gamex-panel/internal/app"
	"github.com/gamexhub/gamex-panel/internal/config"
	"github.com/gamexhub/gamex-panel/internal/mail"
	"github.com/gamexhub/gamex-panel/internal/repository"
	"github.com/gamexhub/gamex-panel/internal/service"
	"github.com/gamexhub/gamex-panel/internal/validation"
)

var infraSet = wire.NewSet(
	provideDB,
	provideRedis,
	mail.New,
	provideInfrastructure,
)

var coreSet = wire.NewSet(
	repository.NewAccountRepository,
	repository.NewBlacklistRepository,
	repository.NewGameRepository,
	provideJWTManager,
	providePasswordHasher,
	provideTokenBlacklist,
	service.NewTokenService,
	service.NewAuthService,
	service.NewAccountService,
	providePasswordResetService,
	service.NewGameService,
)

var httpSet = wire.NewSet(
	coreSet,
	validation.New,
	provideAuthHandler,
	providePanelHandlers,
	provideGameHandler,
	provideReadiness,
	provideRouter,
)

// InitializeApp returns a cleanup that releases the database and redis
// handles; call it after App.Run returns.
func InitializeApp(ctx context.Context, cfg *config.Config) (*app.App, func(), error) {
	wire.Build(
		provideRuntime,
		provideLogger,
		infraSet,
		httpSet,
		provideImageReconciler,
		provideServer,
		provideScheduler,
		provideApp,
	)
	return nil, nil, nil
}

func InitializeHandler(cfg *config.Config, infra Infrastructure) (http.Handler, error) {
	wire.Build(
		wire.FieldsOf(new(Infrastructure), "DB", "Redis", "Mailer", "Logger"),
		httpSet,
	)
	return nil, nil
}

func InitializeMaintenance(ctx context.Context, cfg *config.Config) (*Maintenance, func(), error) {
	wire.Build(
		provideRuntime,
		provideLogger,
		provideDB,
		provideRedis,
		repository.NewBlacklistRepository,
		repository.NewGameRepository,
		provideJWTManager,
		provideTokenBlacklist,
		service.NewTokenService,
		provideImageReconciler,
		provideMaintenance,
	)
	return nil, nil, nil
}
