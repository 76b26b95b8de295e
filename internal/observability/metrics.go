package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/gamexhub/gamex-panel/internal/config"
)

const meterName = "gamex-panel"

type AppMetrics struct {
	authLoginCounter      metric.Int64Counter
	authLogoutCounter     metric.Int64Counter
	passwordResetCounter  metric.Int64Counter
	tokenValidation       metric.Int64Counter
	blacklistGCRemoved    metric.Int64Counter
	imagesRemoved         metric.Int64Counter
	repositoryOperations  metric.Int64Counter
	accountMutationsCount metric.Int64Counter
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	var mp *sdkmetric.MeterProvider
	if !cfg.OTELMetricsEnabled {
		mp = sdkmetric.NewMeterProvider()
		logger.Info("otel metrics disabled")
	} else {
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
		if cfg.OTELExporterOTLPInsecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		exporter, err := otlpmetricgrpc.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("create otlp metric exporter: %w", err)
		}
		res, err := newResource(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("create metric resource: %w", err)
		}
		reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
		mp = sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(reader),
		)
		logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	}
	otel.SetMeterProvider(mp)

	m, err := newAppMetrics(mp.Meter(meterName))
	if err != nil {
		return nil, err
	}
	metricsMu.Lock()
	appMetrics = m
	metricsMu.Unlock()
	return mp, nil
}

func newAppMetrics(meter metric.Meter) (*AppMetrics, error) {
	var m AppMetrics
	counters := []struct {
		dst  *metric.Int64Counter
		name string
	}{
		{&m.authLoginCounter, "auth.login.attempts"},
		{&m.authLogoutCounter, "auth.logout.attempts"},
		{&m.passwordResetCounter, "auth.password_reset.events"},
		{&m.tokenValidation, "auth.access_token.validations"},
		{&m.blacklistGCRemoved, "blacklist.gc.removed"},
		{&m.imagesRemoved, "images.reconcile.removed"},
		{&m.repositoryOperations, "repository.operations"},
		{&m.accountMutationsCount, "admin.account.mutations"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name)
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", c.name, err)
		}
		*c.dst = counter
	}
	return &m, nil
}

func current() *AppMetrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return appMetrics
}

func RecordAuthLogin(ctx context.Context, surface, status string) {
	m := current()
	if m == nil {
		return
	}
	m.authLoginCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("surface", surface),
		attribute.String("status", status),
	))
}

func RecordAuthLogout(ctx context.Context, status string) {
	m := current()
	if m == nil {
		return
	}
	m.authLogoutCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func RecordPasswordReset(ctx context.Context, stage, status string) {
	m := current()
	if m == nil {
		return
	}
	m.passwordResetCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", status),
	))
}

func RecordAccessTokenValidation(ctx context.Context, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.tokenValidation.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func RecordBlacklistGC(ctx context.Context, removed int64) {
	m := current()
	if m == nil || removed <= 0 {
		return
	}
	m.blacklistGCRemoved.Add(ctx, removed)
}

func RecordImagesRemoved(ctx context.Context, removed int) {
	m := current()
	if m == nil || removed <= 0 {
		return
	}
	m.imagesRemoved.Add(ctx, int64(removed))
}

func RecordRepositoryOperation(ctx context.Context, repo, op, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.repositoryOperations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("repo", repo),
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	))
}

func RecordAccountMutation(ctx context.Context, actor, action string) {
	m := current()
	if m == nil {
		return
	}
	m.accountMutationsCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("actor", actor),
		attribute.String("action", action),
	))
}
