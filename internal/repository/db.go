package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gamexhub/gamex-panel/internal/config"
	"github.com/gamexhub/gamex-panel/internal/domain"
)

const slowQueryThreshold = 200 * time.Millisecond

// Open connects to the configured database. Duplicate-key violations surface as
// gorm.ErrDuplicatedKey on both drivers. SQL is logged through log.
func Open(cfg *config.Config, log *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case config.DBDriverPostgres:
		dialector = postgres.Open(cfg.DatabaseURL)
	case config.DBDriverSQLite:
		dialector = sqlite.Open(cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(cfg, log),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	return db, nil
}

// newGormLogger keeps misses quiet; lookups by token hash or email miss on
// the normal path. Bind values stay out of the log.
func newGormLogger(cfg *config.Config, log *slog.Logger) logger.Interface {
	if log == nil {
		log = slog.Default()
	}
	level := logger.Warn
	if cfg.LogLevel == "debug" {
		level = logger.Info
	}
	return logger.NewSlogLogger(log.With("component", "gorm"), logger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		ParameterizedQueries:      true,
	})
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Migrate creates or alters the tables and adds the partial unique index that
// keeps at most one superadmin row.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&domain.Account{}, &domain.Game{}, &domain.BlacklistedToken{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	const singleSuperadmin = `CREATE UNIQUE INDEX IF NOT EXISTS idx_users_single_superadmin ON users (role) WHERE role = 'superadmin'`
	if err := db.WithContext(ctx).Exec(singleSuperadmin).Error; err != nil {
		return fmt.Errorf("create superadmin index: %w", err)
	}
	return nil
}
