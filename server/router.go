package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ebogdum/levelgate/audit"
	"github.com/ebogdum/levelgate/auth"
	"github.com/ebogdum/levelgate/config"
	"github.com/ebogdum/levelgate/metrics"
	"github.com/ebogdum/levelgate/server/handlers"
	"github.com/ebogdum/levelgate/session"
	authMiddleware "github.com/ebogdum/levelgate/server/middleware"
)

// Dependencies are the collaborators the router wires into its routes
type Dependencies struct {
	Resolver authMiddleware.OutcomeResolver
	// Session attaches session locals. Nil installs session.AnonymousMiddleware,
	// so requests without other credentials resolve as anonymous.
	Session func(http.Handler) http.Handler
	// Auditor is nil when auditing is disabled
	Auditor *audit.Auditor
}

// NewRouter creates and configures the HTTP router
func NewRouter(deps Dependencies, cfg *config.AppConfig, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	// Basic middleware. RealIP is left out so the audit trail sees the
	// forwarded-for header and connection address as received.
	r.Use(authMiddleware.V1RequestIDMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	r.Use(authMiddleware.V1SecurityHeaders())

	// Custom logging and metrics middleware
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			route := routePattern(r)

			metrics.HTTPRequestsTotal.WithLabelValues(
				r.Method,
				route,
				strconv.Itoa(ww.Status()),
			).Inc()

			metrics.HTTPRequestDuration.WithLabelValues(
				r.Method,
				route,
			).Observe(duration.Seconds())

			logger.Info("HTTP request",
				zap.String("request_id", authMiddleware.GetRequestID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", duration),
				zap.String("user_agent", r.UserAgent()),
				zap.String("remote_addr", r.RemoteAddr))
		})
	})

	r.NotFound(handlers.V1NotFound())
	r.MethodNotAllowed(handlers.V1MethodNotAllowed())

	// Health check endpoint (no auth required)
	r.Get("/health", handlers.V1Health())

	if cfg.Metrics.Enabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
		r.Use(authMiddleware.V1RateLimitMiddleware(limiter, logger))

		if deps.Auditor != nil {
			r.Use(audit.Middleware(deps.Auditor, logger))
		}
		if deps.Session != nil {
			r.Use(deps.Session)
		} else {
			r.Use(session.AnonymousMiddleware())
		}

		r.Route("/auth", func(r chi.Router) {
			r.Get("/level", handlers.V1GetLevel(deps.Resolver, logger))
			r.Get("/check", handlers.V1CheckLevel(deps.Resolver, logger))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authMiddleware.V1RequireLevel(deps.Resolver, auth.LevelAdmin, logger))
			r.Get("/ping", handlers.V1AdminPing())
		})
	})

	logger.Info("HTTP router configured successfully")

	return r
}

// routePattern keeps metric label cardinality bounded
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
