package router

import (
	"communities/messages/internal/api"
	"communities/messages/shared/observability"
)

// SetupHealthRoutes registers /health and, when enabled, /metrics on the health engine
func (r *Router) SetupHealthRoutes() {
	api.NewHealthHandler(r.Container.HealthService, r.Config.Database.Timeout).RegisterRoutes(r.HealthEngine)

	if r.Config.Features.Metrics {
		r.HealthEngine.GET("/metrics", observability.MetricsHandler())
	}
}
