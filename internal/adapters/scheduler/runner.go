// Package scheduler runs pipeline tasks on a fixed interval, optionally guarded by a
// cross-process run lock.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/target/review-ingest/internal/core"
	obserrors "github.com/target/review-ingest/internal/observability/errors"
	"github.com/target/review-ingest/internal/observability/metrics"
	"github.com/target/review-ingest/internal/observability/statsd"
)

const defaultLockTTL = 2 * time.Minute

var (
	// ErrLockHeld is returned by Tick when another process holds the task's lock.
	ErrLockHeld = errors.New("run lock held by another process")
	// ErrLockLost is returned by Tick when the lock expired or was taken over mid-run.
	ErrLockLost = errors.New("run lock lost")
)

// Task is one unit of scheduled work. It reports how many items it handled.
type Task func(ctx context.Context) (int, error)

// Runner calls a Task on every tick of a fixed interval until its context is cancelled.
type Runner struct {
	name     string
	task     Task
	interval time.Duration
	lock     core.RunLock
	lockTTL  time.Duration
	logger   *slog.Logger
	metrics  statsd.Sink
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Name     string // Required: lock key and metric tag
	Task     Task   // Required
	Interval time.Duration

	// Lock, when set, keeps two processes from running the same task at once.
	Lock    core.RunLock
	LockTTL time.Duration

	Logger  *slog.Logger
	Metrics statsd.Sink
}

// NewRunner creates a new scheduler runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := validateRunnerOptions(&opts); err != nil {
		return nil, err
	}
	return &Runner{
		name:     opts.Name,
		task:     opts.Task,
		interval: opts.Interval,
		lock:     opts.Lock,
		lockTTL:  opts.LockTTL,
		logger:   opts.Logger.With("component", "scheduler", "task", opts.Name),
		metrics:  opts.Metrics,
	}, nil
}

// validateRunnerOptions validates and sets defaults for RunnerOptions.
func validateRunnerOptions(opts *RunnerOptions) error {
	if opts.Name == "" {
		return errors.New("task name is required")
	}
	if opts.Task == nil {
		return errors.New("task is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = defaultLockTTL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return nil
}

// Run ticks once immediately and then every interval. Task errors are logged and the
// loop keeps going; it returns nil when ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting scheduler runner", "interval", r.interval, "locked", r.lock != nil)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		r.tickAndReport(ctx)

		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "scheduler runner stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Runner) tickAndReport(ctx context.Context) {
	start := time.Now()
	handled, err := r.Tick(ctx)
	elapsed := time.Since(start)

	r.emitTickMetrics(handled, elapsed, err)

	switch {
	case errors.Is(err, ErrLockHeld):
		r.logger.DebugContext(ctx, "skipping tick, lock held elsewhere")
	case err != nil && ctx.Err() != nil:
		r.logger.InfoContext(ctx, "tick interrupted", "error", err)
	case err != nil:
		// Continue running despite errors
		r.logger.ErrorContext(ctx, "scheduler tick error", "error", err)
	case handled > 0:
		r.logger.InfoContext(ctx, "scheduler tick complete", "handled", handled, "duration", elapsed)
	}
}

// Tick runs the task once. With a lock configured the task only runs while the lock is
// held; the lock is refreshed every third of its TTL and losing it cancels the task.
func (r *Runner) Tick(ctx context.Context) (int, error) {
	if r.lock == nil {
		return r.task(ctx)
	}

	token, ok, err := r.lock.Acquire(ctx, r.name, r.lockTTL)
	if err != nil {
		return 0, fmt.Errorf("acquire %s lock: %w", r.name, err)
	}
	if !ok {
		return 0, ErrLockHeld
	}
	defer func() {
		if relErr := r.lock.Release(context.WithoutCancel(ctx), r.name, token); relErr != nil {
			r.logger.WarnContext(ctx, "failed to release run lock", "error", relErr)
		}
	}()

	var handled int
	done := make(chan struct{})
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		defer close(done)
		n, taskErr := r.task(gctx)
		handled = n
		return taskErr
	})
	group.Go(func() error {
		return r.keepLock(gctx, token, done)
	})
	err = group.Wait()
	return handled, err
}

func (r *Runner) keepLock(ctx context.Context, token string, done <-chan struct{}) error {
	ticker := time.NewTicker(max(r.lockTTL/3, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			ok, err := r.lock.Refresh(ctx, r.name, token, r.lockTTL)
			if err != nil {
				return fmt.Errorf("refresh %s lock: %w", r.name, err)
			}
			if !ok {
				return ErrLockLost
			}
		}
	}
}

func (r *Runner) emitTickMetrics(handled int, elapsed time.Duration, err error) {
	if r.metrics == nil {
		return
	}

	result := metrics.ResultSuccess
	switch {
	case errors.Is(err, ErrLockHeld):
		result = metrics.ResultSkipped
	case err != nil:
		result = metrics.ResultError
	case handled == 0:
		result = metrics.ResultNoop
	}

	tags := map[string]string{
		"task":   r.name,
		"result": result,
	}

	if err != nil && result == metrics.ResultError {
		if class := obserrors.Classify(err); class != "" {
			tags["error_class"] = class
		}
	}

	r.metrics.Count("scheduler.tick", 1, tags)

	if handled > 0 {
		r.metrics.Count("scheduler.items", int64(handled), tags)
	}

	if elapsed > 0 {
		r.metrics.Timing("scheduler.tick_duration", elapsed, metrics.CloneTags(tags))
	}

	if err == nil {
		r.metrics.Gauge("scheduler.last_success_epoch", float64(time.Now().Unix()), map[string]string{"task": r.name})
	}
}
