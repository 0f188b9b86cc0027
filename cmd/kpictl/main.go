package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"kpiengine/internal/domain/kpi"
	"kpiengine/internal/domain/reward"
	"kpiengine/internal/platform/config"
	"kpiengine/internal/platform/db"
)

var rootCmd = &cobra.Command{
	Use:           "kpictl",
	Short:         "Operate the KPI and reward engine from the command line",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(recalcCmd)
}

// openRecalculator wires the reward service against Postgres. Tests swap it
// for an in-memory one.
var openRecalculator = func(ctx context.Context) (Recalculator, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	slog.SetDefault(cfg.Logger(os.Stderr))

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("db connect: %w", err)
	}
	svc := reward.NewService(
		reward.NewStore(pool),
		kpi.NewService(kpi.NewStore(pool)),
		reward.WithFormula(cfg.Formula()),
		reward.WithWorkers(cfg.BatchWorkers),
	)
	return svc, pool.Close, nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errUnitsFailed) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
