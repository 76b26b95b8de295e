package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gamexhub/gamex-panel/internal/config"
	"github.com/gamexhub/gamex-panel/internal/di"
	"github.com/gamexhub/gamex-panel/internal/observability"
	"github.com/gamexhub/gamex-panel/internal/repository"
)

type options struct {
	autoMigrate bool
	baseURL     string
	timeout     time.Duration
}

// loadConfig is swapped in tests.
var loadConfig = config.Load

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "gamex",
		Short:         "GameX user, admin and superadmin panel backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newBlacklistCommand())
	cmd.AddCommand(newImagesCommand())
	cmd.AddCommand(newHealthcheckCommand(opts))
	return cmd
}

func newServeCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the maintenance scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if opts.autoMigrate {
				if err := migrate(ctx, cfg); err != nil {
					return err
				}
			}
			a, cleanup, err := di.InitializeApp(ctx, cfg)
			if err != nil {
				return fmt.Errorf("initialize app: %w", err)
			}
			defer cleanup()
			return a.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&opts.autoMigrate, "auto-migrate", true, "apply schema migrations before serving")
	return cmd
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := migrate(cmd.Context(), cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newBlacklistCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "blacklist", Short: "Token blacklist maintenance"}
	cmd.AddCommand(&cobra.Command{
		Use:   "gc",
		Short: "Delete blacklist entries whose tokens have expired",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMaintenance(cmd, func(ctx context.Context, m *di.Maintenance) error {
				removed, err := m.Tokens.PurgeExpired(ctx)
				if err != nil {
					return fmt.Errorf("purge expired tokens: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired blacklist entries\n", removed)
				return nil
			})
		},
	})
	return cmd
}

func newImagesCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "images", Short: "Uploaded image maintenance"}
	cmd.AddCommand(&cobra.Command{
		Use:   "reconcile",
		Short: "Delete uploaded images no game references any more",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMaintenance(cmd, func(ctx context.Context, m *di.Maintenance) error {
				removed, err := m.Images.Reconcile(ctx)
				if err != nil {
					return fmt.Errorf("reconcile images: %w", err)
				}
				for _, p := range removed {
					fmt.Fprintln(cmd.OutOrStdout(), "removed", p)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d orphaned images\n", len(removed))
				return nil
			})
		},
	})
	return cmd
}

func migrate(ctx context.Context, cfg *config.Config) error {
	db, err := repository.Open(cfg, observability.NewLogger(cfg, os.Stderr))
	if err != nil {
		return err
	}
	defer func() { _ = repository.Close(db) }()
	if err := repository.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func withMaintenance(cmd *cobra.Command, fn func(context.Context, *di.Maintenance) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
	defer cancel()
	m, cleanup, err := di.InitializeMaintenance(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize maintenance: %w", err)
	}
	defer cleanup()
	defer func() { _ = m.Close(context.Background()) }()
	return fn(ctx, m)
}
