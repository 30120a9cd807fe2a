// Package httpapi assembles the HTTP surface: middleware chain, per-scope
// complaint routes, and the operational endpoints. Transport concerns stay
// here so handlers and services remain HTTP-thin.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	complainthandler "grievance/internal/complaint/handler"
	"grievance/internal/platform/middleware"
	"grievance/pkg/domain"
	"grievance/pkg/platform/httputil"
)

const requestTimeout = 30 * time.Second

// HealthCheck probes one dependency. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

// RouterConfig carries everything the router mounts.
type RouterConfig struct {
	Logger    *slog.Logger
	Validator middleware.ActorValidator

	Citizen *complainthandler.Handler
	Staff   *complainthandler.Handler
	Admin   *complainthandler.Handler

	HealthChecks map[string]HealthCheck
}

// NewRouter wires all endpoints. Citizen, staff, and admin mount the same
// handler shape under their own prefixes, each gated by actor kind.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", handleHealthz(cfg.Logger, cfg.HealthChecks))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireActor(cfg.Validator, cfg.Logger))

		r.Route("/complaints", func(r chi.Router) {
			r.Use(middleware.RequireKind(domain.ActorKindCitizen, cfg.Logger))
			cfg.Citizen.Register(r)
		})
		r.Route("/staff/complaints", func(r chi.Router) {
			r.Use(middleware.RequireKind(domain.ActorKindStaff, cfg.Logger))
			cfg.Staff.Register(r)
		})
		r.Route("/admin/complaints", func(r chi.Router) {
			r.Use(middleware.RequireKind(domain.ActorKindAdmin, cfg.Logger))
			cfg.Admin.Register(r)
		})

		// Any authenticated actor may shed its locks; lock release is not
		// scoped.
		cfg.Admin.RegisterLockRelease(r)
	})

	return r
}

func handleHealthz(logger *slog.Logger, checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed", "dependency", name, "error", err)
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = err.Error()
			}
		}
		httputil.WriteJSON(w, status, body)
	}
}
