package routers

import (
	"codinground/internal/handlers"
	"codinground/internal/metrics"

	"github.com/go-chi/chi/v5"
)

func HealthRoutes(router *chi.Mux, healthHandler *handlers.HealthHandler) {
	router.Get("/healthz", healthHandler.HealthzHandler)
	router.Get("/readyz", healthHandler.ReadyzHandler)
	router.Get("/api/v1/coding/healthz", healthHandler.HealthzHandler)
	router.Handle("/metrics", metrics.Handler())
}
