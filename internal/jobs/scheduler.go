package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/gamexhub/gamex-panel/internal/config"
	"github.com/gamexhub/gamex-panel/internal/service"
)

const jobTimeout = 5 * time.Minute

// Scheduler runs the periodic maintenance jobs: blacklist GC and orphaned
// image cleanup.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

func NewScheduler(cfg *config.Config, purger service.BlacklistPurger, cleaner service.ImageCleaner, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := cron.New(cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger})))
	s := &Scheduler{cron: c, logger: logger}

	if _, err := c.AddFunc(cfg.BlacklistGCSchedule, s.wrap("blacklist_gc", func(ctx context.Context) error {
		removed, err := purger.PurgeExpired(ctx)
		if err == nil {
			logger.InfoContext(ctx, "blacklist gc finished", "removed", removed)
		}
		return err
	})); err != nil {
		return nil, fmt.Errorf("schedule blacklist gc %q: %w", cfg.BlacklistGCSchedule, err)
	}
	if _, err := c.AddFunc(cfg.ImageReconcileSchedule, s.wrap("image_reconcile", func(ctx context.Context) error {
		_, err := cleaner.Reconcile(ctx)
		return err
	})); err != nil {
		return nil, fmt.Errorf("schedule image reconcile %q: %w", cfg.ImageReconcileSchedule, err)
	}
	return s, nil
}

func (s *Scheduler) wrap(name string, fn func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		start := time.Now()
		if err := fn(ctx); err != nil {
			s.logger.ErrorContext(ctx, "scheduled job failed", "job", name, "error", err, "duration", time.Since(start))
			return
		}
		s.logger.DebugContext(ctx, "scheduled job done", "job", name, "duration", time.Since(start))
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
