package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hyperengineering/trustedapps/internal/listclient"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, client listclient.ExceptionListClient) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(ListClientMiddleware(client))

	// Public routes (no auth required)
	r.With(MetricsMiddleware("/api/health")).Get("/api/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	// Protected routes (auth required)
	r.Route("/api/trusted_apps", func(r chi.Router) {
		r.Use(AuthMiddleware(h.apiKey))
		r.With(MetricsMiddleware("/api/trusted_apps")).Get("/", h.ListTrustedApps)
		r.With(MetricsMiddleware("/api/trusted_apps")).Post("/", h.CreateTrustedApp)
		r.With(MetricsMiddleware("/api/trusted_apps/{id}")).Delete("/{id}", h.DeleteTrustedApp)
	})

	return r
}
