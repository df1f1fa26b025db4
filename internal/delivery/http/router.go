package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter mounts the full HTTP surface. The bare /{shortCode} route sits
// last so management routes always win.
func NewRouter(handler *Handler, authMW *AuthMiddleware, rateLimiter *RateLimiter, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware(logger))
	r.Use(MetricsMiddleware)

	r.Get("/healthz", handler.Healthz)
	r.Get("/readyz", handler.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	if handler.devMode {
		r.Post("/auth/token", handler.MintToken)
	}

	r.Route("/urls", func(r chi.Router) {
		r.Use(rateLimiter.Middleware)

		r.With(authMW.Optional).Post("/", handler.CreateURL)

		r.Group(func(r chi.Router) {
			r.Use(authMW.Required)
			r.Post("/bulk", handler.BulkCreate)
			r.Get("/", handler.ListURLs)
			r.Get("/{id}/analytics", handler.GetAnalytics)
			r.Put("/{id}", handler.UpdateURL)
			r.Delete("/{id}", handler.DeleteURL)
		})
	})

	r.Get("/{shortCode}", handler.Redirect)

	return r
}
