// Package app wires the shared infrastructure and domain services used by
// the API, the worker and the seeder.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-jastip/internal/analytics"
	"github.com/noah-isme/backend-jastip/internal/audit"
	"github.com/noah-isme/backend-jastip/internal/auth"
	"github.com/noah-isme/backend-jastip/internal/config"
	"github.com/noah-isme/backend-jastip/internal/customer"
	"github.com/noah-isme/backend-jastip/internal/db"
	"github.com/noah-isme/backend-jastip/internal/invoice"
	"github.com/noah-isme/backend-jastip/internal/ledger"
	"github.com/noah-isme/backend-jastip/internal/lock"
	"github.com/noah-isme/backend-jastip/internal/obs"
	"github.com/noah-isme/backend-jastip/internal/order"
	"github.com/noah-isme/backend-jastip/internal/resilience"
	"github.com/noah-isme/backend-jastip/internal/settings"
	"github.com/noah-isme/backend-jastip/internal/tracking"
)

// Dependencies holds the connections and services shared by every entrypoint.
type Dependencies struct {
	Config *config.Config
	Logger zerolog.Logger
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Tasks  *asynq.Client

	Settings  *settings.Service
	Orders    *order.Service
	Customers *customer.Service
	Ledger    *ledger.Service
	Tracking  *tracking.Service
	Invoices  *invoice.Service
	Auth      *auth.Service
	Analytics *analytics.Service
	Audit     *audit.Service

	InvoiceStore invoice.Store
	AuditStore   audit.Store

	closers []func() error
}

// Open connects Postgres and Redis, optionally migrates, and builds the
// domain services. Callers must Close the result.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Dependencies, error) {
	d := &Dependencies{Config: cfg, Logger: logger}

	if cfg.MigrateOnStart {
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			return nil, err
		}
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	d.DB = pool
	d.closers = append(d.closers, func() error { pool.Close(); return nil })

	rdb, err := NewRedis(ctx, cfg, logger)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.Redis = rdb
	d.closers = append(d.closers, rdb.Close)

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("parse redis url for tasks: %w", err)
	}
	d.Tasks = asynq.NewClient(redisOpt)
	d.closers = append(d.closers, d.Tasks.Close)

	if err := d.buildServices(); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// NewRedis opens an instrumented Redis client and verifies it with a ping.
func NewRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(rdb); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if cfg.MetricsEnabled {
		if err := redisotel.InstrumentMetrics(rdb); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func (d *Dependencies) buildServices() error {
	cfg := d.Config
	var breakerMetrics *resilience.Metrics
	if cfg.MetricsEnabled {
		breakerMetrics = resilience.NewMetrics(cfg.MetricsNamespace, prometheus.DefaultRegisterer)
	}
	logger := d.Logger
	cacheBreaker := resilience.NewBreaker(resilience.Config{
		Target:       "redis_cache",
		MinRequests:  cfg.CacheBreakerMinRequests,
		FailureRatio: cfg.CacheBreakerFailureRatio,
		OpenFor:      cfg.CacheBreakerOpenFor,
		Metrics:      breakerMetrics,
		Logger:       &logger,
	})

	d.Settings = &settings.Service{
		Store: settings.NewStore(d.DB),
		Cache: settings.NewCache(d.Redis, cfg.SettingsCacheTTL).WithBreaker(cacheBreaker),
		Defaults: settings.Pricing{
			UnitPricePerKg:  cfg.DefaultUnitPricePerKg,
			DefaultCurrency: cfg.DefaultCurrency,
		},
	}
	d.Orders = &order.Service{Store: order.NewStore(d.DB), Prices: d.Settings}
	d.Customers = &customer.Service{Store: customer.NewStore(d.DB)}
	d.Ledger = &ledger.Service{Store: ledger.NewStore(d.DB)}
	d.Tracking = &tracking.Service{Store: tracking.NewStore(d.DB)}
	d.InvoiceStore = invoice.NewStore(d.DB)
	d.Invoices = &invoice.Service{
		Store:  d.InvoiceStore,
		Orders: d.Orders,
		Locker: d.Locker(),
		Tasks:  d.Tasks,
	}

	d.Analytics = &analytics.Service{
		Store:        analytics.NewStore(d.DB),
		R:            d.Redis,
		TTL:          cfg.AnalyticsCacheTTL,
		DefaultRange: cfg.AnalyticsDefaultRangeDays,
		Breaker:      cacheBreaker,
	}
	d.AuditStore = audit.NewStore(d.DB)
	d.Audit = &audit.Service{
		Store:        d.AuditStore,
		Enabled:      cfg.AuditEnabled,
		SamplingRate: cfg.AuditSamplingRate,
	}

	authSvc, err := auth.NewService(auth.Config{
		Store:          auth.NewStore(d.DB),
		Secret:         cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
	})
	if err != nil {
		return fmt.Errorf("initialise auth service: %w", err)
	}
	d.Auth = authSvc
	return nil
}

// Locker returns the Redis lock used for cross-replica critical sections.
func (d *Dependencies) Locker() lock.Locker {
	return lock.Locker{R: d.Redis, TTL: d.Config.LockTTL, RetryBackoff: d.Config.LockRetryBackoff}
}

// InitObservability registers Prometheus collectors and, when enabled,
// installs the tracer provider. The returned function flushes spans.
func InitObservability(ctx context.Context, cfg *config.Config, service string, logger zerolog.Logger) func(context.Context) {
	if cfg.MetricsEnabled {
		obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, prometheus.DefaultRegisterer)
	}
	if !cfg.TracingEnabled {
		return func(context.Context) {}
	}
	shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
		ServiceName:   service,
		Endpoint:      cfg.TracingEndpoint,
		Exporter:      cfg.TracingExporter,
		SamplingRatio: cfg.TracingSampling,
		Environment:   cfg.AppEnv,
	})
	if err != nil {
		logger.Error().Err(err).Msg("initialise tracing")
		return func(context.Context) {}
	}
	return func(ctx context.Context) {
		if err := shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("shutdown tracer")
		}
	}
}

// Close releases connections in reverse order of acquisition.
func (d *Dependencies) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}
