package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/backend-jastip/internal/analytics"
	"github.com/noah-isme/backend-jastip/internal/app"
	"github.com/noah-isme/backend-jastip/internal/audit"
	"github.com/noah-isme/backend-jastip/internal/auth"
	"github.com/noah-isme/backend-jastip/internal/common"
	"github.com/noah-isme/backend-jastip/internal/customer"
	"github.com/noah-isme/backend-jastip/internal/health"
	"github.com/noah-isme/backend-jastip/internal/invoice"
	"github.com/noah-isme/backend-jastip/internal/ledger"
	"github.com/noah-isme/backend-jastip/internal/obs"
	"github.com/noah-isme/backend-jastip/internal/order"
	"github.com/noah-isme/backend-jastip/internal/ratelimit"
	"github.com/noah-isme/backend-jastip/internal/security"
	"github.com/noah-isme/backend-jastip/internal/settings"
	"github.com/noah-isme/backend-jastip/internal/tracking"
)

type routerOptions struct {
	LoginLimiter ratelimit.Limiter
	Metrics      *obs.HTTPMetrics
}

func newRouter(d *app.Dependencies, opts routerOptions) http.Handler {
	cfg := d.Config

	authHandler := &auth.Handler{Service: d.Auth}
	authMiddleware := auth.Middleware{Service: d.Auth}
	idem := common.Idem{R: d.Redis, TTL: cfg.IdempotencyTTL}
	loginLimit := ratelimit.Handler{
		Limiter: opts.LoginLimiter,
		Key:     ratelimit.ByClientIP("login"),
		OnError: func(r *http.Request, err error) {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("login rate limiter unavailable")
		},
	}

	auditRecorder := audit.HTTPRecorder{
		Service: d.Audit,
		OnError: func(r *http.Request, err error) {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("record audit log")
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(common.RealIP{Trusted: cfg.TrustedProxies}.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if opts.Metrics != nil {
		r.Use(obs.HTTPObs{Metrics: opts.Metrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: d.Logger}.Middleware)
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.IsProduction()}.Middleware)
	r.Use(security.CORS(cfg.CORSAllowedOrigins))
	r.Use(security.BodyLimit{Max: cfg.HTTPMaxBodyBytes}.Middleware)

	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	r.Route("/health", health.Handler{
		Checker:      health.Deps{DB: d.DB, Redis: d.Redis},
		DBTimeout:    cfg.HealthDBTimeout,
		RedisTimeout: cfg.HealthRedisTimeout,
	}.Routes)

	r.Route("/api/v1", func(v chi.Router) {
		v.Route("/auth", func(a chi.Router) {
			a.With(loginLimit.Middleware).Post("/login", authHandler.Login)
			a.With(authMiddleware.RequireAuth).Get("/me", authHandler.Me)
		})

		v.Group(func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAuth)
			admin.Use(auditRecorder.Middleware)
			admin.Use(idem.Middleware)

			settingsHandler := &settings.Handler{Svc: d.Settings}
			admin.Get("/settings/pricing", settingsHandler.Get)
			admin.Put("/settings/pricing", settingsHandler.Put)

			admin.Route("/orders", (&order.Handler{Svc: d.Orders}).Routes)
			admin.Route("/customers", (&customer.Handler{Svc: d.Customers}).Routes)
			admin.Route("/ledger", (&ledger.Handler{Svc: d.Ledger}).Routes)
			admin.Route("/tracking-items", (&tracking.Handler{Svc: d.Tracking}).Routes)
			admin.Route("/invoices", (&invoice.Handler{Svc: d.Invoices}).Routes)
			admin.Route("/analytics", (&analytics.Handler{Svc: d.Analytics}).Routes)
			admin.Get("/audit-logs", audit.Handler{Store: d.AuditStore}.List)
		})
	})

	return otelhttp.NewHandler(r, "http.server", otelhttp.WithSpanNameFormatter(obs.SpanName))
}
