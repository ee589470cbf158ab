package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/review-ingest/config"
	"github.com/target/review-ingest/internal/adapters/reaper"
	"github.com/target/review-ingest/internal/adapters/scheduler"
	"github.com/target/review-ingest/internal/core"
	"github.com/target/review-ingest/internal/observability/statsd"
)

// ScheduledTaskConfig contains configuration for an interval-driven pipeline loop.
type ScheduledTaskConfig struct {
	Name     string
	Task     scheduler.Task
	Interval time.Duration
	Lock     core.RunLock
	LockTTL  time.Duration
	Logger   *slog.Logger
	Metrics  statsd.Sink
}

// RunScheduledTask runs cfg.Task every cfg.Interval until ctx is cancelled.
func RunScheduledTask(ctx context.Context, cfg ScheduledTaskConfig) error {
	runner, err := scheduler.NewRunner(scheduler.RunnerOptions{
		Name:     cfg.Name,
		Task:     cfg.Task,
		Interval: cfg.Interval,
		Lock:     cfg.Lock,
		LockTTL:  cfg.LockTTL,
		Logger:   cfg.Logger,
		Metrics:  cfg.Metrics,
	})
	if err != nil {
		return fmt.Errorf("create %s runner: %w", cfg.Name, err)
	}

	return runner.Run(ctx)
}

// ReaperConfig contains configuration for the reaper.
type ReaperConfig struct {
	DB      *sql.DB
	Logger  *slog.Logger
	Config  config.ReaperConfig
	Metrics statsd.Sink
}

// RunReaper starts the reaper service.
func RunReaper(ctx context.Context, cfg ReaperConfig) error {
	runner, err := reaper.NewRunner(reaper.RunnerOptions{
		DB:      cfg.DB,
		Config:  cfg.Config,
		Logger:  cfg.Logger,
		Metrics: cfg.Metrics,
	})
	if err != nil {
		return fmt.Errorf("create reaper runner: %w", err)
	}

	return runner.Run(ctx)
}
