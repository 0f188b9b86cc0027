package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"kpiengine/internal/domain/audit"
	"kpiengine/internal/domain/kpi"
	"kpiengine/internal/domain/reward"
	"kpiengine/internal/platform/config"
	"kpiengine/internal/platform/db"
	"kpiengine/internal/platform/jobs"
	"kpiengine/internal/platform/metrics"
)

type App struct {
	Config  config.Config
	DB      *db.Pool
	Router  http.Handler
	Rewards *reward.Service
	Jobs    *jobs.Service
}

// New connects to Postgres, applies migrations and seed data when enabled and
// wires every service. Background jobs run until ctx is done.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	collector := metrics.New()
	kpiSvc := kpi.NewService(kpi.NewStore(pool))
	rewardSvc := reward.NewService(
		reward.NewStore(pool),
		kpiSvc,
		reward.WithFormula(cfg.Formula()),
		reward.WithWorkers(cfg.BatchWorkers),
		reward.WithRecorder(collector),
	)
	jobsSvc := jobs.New(jobs.NewPGRuns(pool), rewardSvc, collector, jobs.Options{
		RecalcInterval:   cfg.RecalcInterval,
		RecalcPeriodType: cfg.PeriodType(),
	})
	jobsSvc.Start(ctx)

	router := NewRouter(Deps{
		Config:  cfg,
		KPI:     kpiSvc,
		Rewards: rewardSvc,
		Jobs:    jobsSvc,
		Audit:   audit.New(pool),
		Metrics: collector,
		Ready:   pool.Ping,
	})

	return &App{Config: cfg, DB: pool, Router: router, Rewards: rewardSvc, Jobs: jobsSvc}, nil
}

// Close waits for background jobs, which stop with the context given to New,
// then releases the pool.
func (a *App) Close() {
	a.Jobs.Wait()
	a.DB.Close()
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func Run(ctx context.Context, cfg config.Config) error {
	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("kpi engine listening", "addr", cfg.Addr, "formula", cfg.Formula(), "workers", cfg.BatchWorkers)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	slog.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
