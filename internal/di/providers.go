package di

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/gamexhub/gamex-panel/internal/app"
	"github.com/gamexhub/gamex-panel/internal/config"
	"github.com/gamexhub/gamex-panel/internal/health"
	"github.com/gamexhub/gamex-panel/internal/http/handler"
	"github.com/gamexhub/gamex-panel/internal/http/router"
	"github.com/gamexhub/gamex-panel/internal/jobs"
	"github.com/gamexhub/gamex-panel/internal/mail"
	"github.com/gamexhub/gamex-panel/internal/observability"
	"github.com/gamexhub/gamex-panel/internal/repository"
	"github.com/gamexhub/gamex-panel/internal/security"
	"github.com/gamexhub/gamex-panel/internal/service"
	"github.com/gamexhub/gamex-panel/internal/validation"
)

// Infrastructure holds the external resources the HTTP graph is built on.
// Tests assemble one by hand around sqlite, miniredis and a recording mailer.
type Infrastructure struct {
	DB     *gorm.DB
	Redis  redis.UniversalClient
	Mailer mail.Mailer
	Logger *slog.Logger
}

// Maintenance is the graph the one-shot CLI commands run against. The database
// and redis handles are released by the cleanup InitializeMaintenance returns.
type Maintenance struct {
	Tokens  *service.TokenService
	Images  *service.ImageReconciler
	Logger  *slog.Logger
	Runtime *observability.Runtime
}

func (m *Maintenance) Close(ctx context.Context) error {
	return m.Runtime.Shutdown(ctx)
}

func provideRuntime(ctx context.Context, cfg *config.Config) (*observability.Runtime, error) {
	return observability.InitRuntime(ctx, cfg, observability.NewLogger(cfg, os.Stdout))
}

func provideLogger(rt *observability.Runtime) *slog.Logger {
	return rt.Logger
}

func provideDB(cfg *config.Config, logger *slog.Logger) (*gorm.DB, func(), error) {
	db, err := repository.Open(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return db, func() {
		if err := repository.Close(db); err != nil {
			logger.Error("close database", "error", err)
		}
	}, nil
}

// provideRedis returns nil unless the blacklist lives in redis.
func provideRedis(cfg *config.Config, logger *slog.Logger) (redis.UniversalClient, func()) {
	if cfg.BlacklistDriver != config.BlacklistDriverRedis {
		return nil, func() {}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	return client, func() {
		if err := client.Close(); err != nil {
			logger.Error("close redis", "error", err)
		}
	}
}

func provideInfrastructure(db *gorm.DB, client redis.UniversalClient, mailer mail.Mailer, logger *slog.Logger) Infrastructure {
	return Infrastructure{DB: db, Redis: client, Mailer: mailer, Logger: logger}
}

func provideJWTManager(cfg *config.Config) *security.JWTManager {
	return security.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTSecret, cfg.ResetSecret, cfg.JWTAccessTTL, cfg.ResetTTL)
}

func providePasswordHasher(cfg *config.Config) *security.PasswordHasher {
	return security.NewPasswordHasher(cfg.BcryptCost)
}

func provideTokenBlacklist(cfg *config.Config, repo repository.BlacklistRepository, client redis.UniversalClient, logger *slog.Logger) (service.TokenBlacklist, error) {
	switch cfg.BlacklistDriver {
	case config.BlacklistDriverRedis:
		if client == nil {
			return nil, fmt.Errorf("blacklist driver %q needs a redis client", cfg.BlacklistDriver)
		}
		return service.NewRedisTokenBlacklist(client, cfg.RedisKeyPrefix), nil
	case config.BlacklistDriverMemory:
		return service.NewInMemoryTokenBlacklist(), nil
	default:
		return service.NewGormTokenBlacklist(repo, cfg.BlacklistMaintenanceThreshold, logger), nil
	}
}

func providePasswordResetService(cfg *config.Config, accounts repository.AccountRepository, hasher *security.PasswordHasher, jwtMgr *security.JWTManager, mailer mail.Mailer, logger *slog.Logger) *service.PasswordResetService {
	return service.NewPasswordResetService(accounts, hasher, jwtMgr, mailer, cfg.ResetURLBase, logger)
}

func provideImageReconciler(cfg *config.Config, games repository.GameRepository, logger *slog.Logger) *service.ImageReconciler {
	return service.NewImageReconciler(games, cfg.UploadDir, cfg.ImageOrphanGrace, logger)
}

func provideAuthHandler(cfg *config.Config, auth *service.AuthService, accounts *service.AccountService, resets *service.PasswordResetService, v *validation.Validator) *handler.AuthHandler {
	return handler.NewAuthHandler(auth, accounts, resets, v, cfg.ConcealUnknown)
}

func provideGameHandler(games *service.GameService, v *validation.Validator) *handler.GameHandler {
	return handler.NewGameHandler(games, v)
}

func provideReadiness(infra Infrastructure) *health.ProbeRunner {
	checkers := []health.Checker{health.DBChecker(infra.DB)}
	if infra.Redis != nil {
		checkers = append(checkers, health.RedisChecker(infra.Redis))
	}
	return health.NewProbeRunner(2*time.Second, time.Second, checkers...)
}

type panelHandlers struct {
	admin      *handler.PanelHandler
	superadmin *handler.PanelHandler
}

func providePanelHandlers(auth *service.AuthService, accounts *service.AccountService, v *validation.Validator) panelHandlers {
	return panelHandlers{
		admin:      handler.NewAdminHandler(auth, accounts, v),
		superadmin: handler.NewSuperadminHandler(auth, accounts, v),
	}
}

func provideRouter(cfg *config.Config, auth *handler.AuthHandler, panels panelHandlers, games *handler.GameHandler, readiness *health.ProbeRunner, tokens *service.TokenService) http.Handler {
	return router.NewRouter(router.Dependencies{
		AuthHandler:           auth,
		AdminHandler:          panels.admin,
		SuperadminHandler:     panels.superadmin,
		GameHandler:           games,
		HealthHandler:         handler.NewHealthHandler(readiness),
		Authenticator:         tokens,
		CORSOrigins:           cfg.CORSAllowedOrigins,
		BodyLimitBytes:        cfg.HTTPBodyLimitBytes,
		AdminRegistrationOpen: cfg.AdminRegistrationOpen,
		EnableOTelHTTP:        cfg.OTELHTTPEnabled,
	})
}

func provideServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: cfg.HTTPReadHeaderTimeout,
	}
}

func provideScheduler(cfg *config.Config, tokens *service.TokenService, images *service.ImageReconciler, logger *slog.Logger) (*jobs.Scheduler, error) {
	return jobs.NewScheduler(cfg, tokens, images, logger)
}

func provideApp(cfg *config.Config, logger *slog.Logger, server *http.Server, scheduler *jobs.Scheduler, rt *observability.Runtime, readiness *health.ProbeRunner) *app.App {
	return app.New(cfg, logger, server, scheduler, rt, readiness)
}

func provideMaintenance(tokens *service.TokenService, images *service.ImageReconciler, rt *observability.Runtime, logger *slog.Logger) *Maintenance {
	return &Maintenance{Tokens: tokens, Images: images, Logger: logger, Runtime: rt}
}
