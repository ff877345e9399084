package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/temaribet/lms/pkg/health"
	"github.com/temaribet/lms/pkg/middleware"

	"github.com/temaribet/lms/internal/auth"
	"github.com/temaribet/lms/internal/domain"
	"github.com/temaribet/lms/internal/gate"
	"github.com/temaribet/lms/internal/service"
)

// RouterConfig bundles the knobs the router needs beyond its collaborators.
type RouterConfig struct {
	SessionTTL     time.Duration
	LoginRateLimit int
	LoginRateBurst int
}

// NewRouter creates a chi router with every route behind the request gate.
func NewRouter(
	authService *service.AuthService,
	bridge *auth.Bridge,
	requestGate *gate.Gate,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Tracing("lms"))
	r.Use(middleware.PrometheusMetrics("lms"))
	r.Use(requestGate.Middleware(cfg.SessionTTL))

	// Operational endpoints (public via the gate's allow-list)
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	authHandler := NewAuthHandler(authService, bridge, cfg.SessionTTL, logger)

	// Auth endpoints. Login and register are rate limited per client IP on
	// top of the per-identifier lockout.
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.LoginRateLimit, cfg.LoginRateBurst, logger))
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/miniapp", authHandler.MiniAppLogin)
		})

		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// Pages
	pages := NewPageHandler()
	r.Get("/", pages.Home)
	r.Get("/login", pages.Login)
	r.Get("/register", pages.Register)
	// /admin is the catch-all landing page, so it stays open to every
	// authenticated role; restricting it would bounce unlisted roles in a
	// redirect loop with the gate.
	r.Get("/dashboard", pages.Dashboard)
	r.Get("/admin", pages.Admin)
	r.With(RequireRole(domain.RoleSuperAdmin)).Get("/super-admin", pages.SuperAdmin)

	return r
}
