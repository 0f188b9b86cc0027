package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"kpiengine/internal/domain/audit"
	"kpiengine/internal/domain/auth"
	"kpiengine/internal/domain/kpi"
	"kpiengine/internal/domain/reward"
	"kpiengine/internal/platform/config"
	"kpiengine/internal/platform/jobs"
	"kpiengine/internal/platform/metrics"
	"kpiengine/internal/transport/http/api"
	audithandler "kpiengine/internal/transport/http/handlers/audit"
	kpihandler "kpiengine/internal/transport/http/handlers/kpi"
	rewardshandler "kpiengine/internal/transport/http/handlers/rewards"
	"kpiengine/internal/transport/http/middleware"
)

// AuditLog is both ends of the audit trail.
type AuditLog interface {
	audit.Recorder
	audithandler.Lister
}

type Deps struct {
	Config  config.Config
	KPI     *kpi.Service
	Rewards *reward.Service
	Jobs    *jobs.Service
	Audit   AuditLog
	Metrics *metrics.Collector
	Ready   func(ctx context.Context) error
}

func NewRouter(d Deps) http.Handler {
	perms := auth.StaticPermissions{}
	recorder := audit.Recorder(d.Audit)
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.SecureHeaders(d.Config.Environment == "production"))
	router.Use(middleware.Logger(d.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.BodyLimit(d.Config.MaxBodyBytes))
	router.Use(middleware.Auth(d.Config.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.Ready(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if d.Config.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, d.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		kpihandler.NewHandler(d.KPI, perms, recorder).RegisterRoutes(r)
		rewardshandler.NewHandler(d.Rewards, d.Jobs, perms, recorder).RegisterRoutes(r)
		if d.Audit != nil {
			audithandler.NewHandler(d.Audit, perms).RegisterRoutes(r)
		}
	})

	return router
}
