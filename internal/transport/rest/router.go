package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/transport/middleware"
)

// adminRequestsPerMinute bounds manual triggers and log reads per client IP.
const adminRequestsPerMinute = 30

// RouterDeps groups what NewRouter mounts. Sync and Auth may be nil; the
// admin routes are then not mounted at all.
type RouterDeps struct {
	Health  *HealthHandler
	Sync    *SyncHandler
	Auth    middleware.TokenValidator
	Limiter *middleware.RateLimiter
	Logger  *slog.Logger
}

// NewRouter builds the HTTP handler.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Recovery(d.Logger))

	r.Get("/live", d.Health.Live)
	r.Get("/ready", d.Health.Ready)
	r.Get("/health", d.Health.Health)
	r.Handle("/metrics", promhttp.Handler())

	if d.Sync == nil || d.Auth == nil {
		return r
	}

	r.Route("/admin/sync/mysideline", func(r chi.Router) {
		if d.Limiter != nil {
			r.Use(d.Limiter.Limit(adminRequestsPerMinute))
		}
		r.Use(middleware.AdminAuth(d.Auth, d.Logger))

		r.Post("/", d.Sync.Trigger)
		r.Get("/logs", d.Sync.Logs)
		r.Get("/stats", d.Sync.Stats)
		r.Get("/status", d.Sync.Status)
	})

	return r
}
