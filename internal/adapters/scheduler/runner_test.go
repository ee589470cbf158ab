package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/review-ingest/internal/mocks"
	"github.com/target/review-ingest/internal/observability/statsd"
)

func countingTask(calls *atomic.Int32, handled int, err error) Task {
	return func(context.Context) (int, error) {
		calls.Add(1)
		return handled, err
	}
}

func TestNewRunnerValidation(t *testing.T) {
	_, err := NewRunner(RunnerOptions{Task: func(context.Context) (int, error) { return 0, nil }})
	require.Error(t, err)

	_, err = NewRunner(RunnerOptions{Name: "ingest"})
	require.Error(t, err)

	r, err := NewRunner(RunnerOptions{Name: "ingest", Task: func(context.Context) (int, error) { return 0, nil }})
	require.NoError(t, err)
	assert.Equal(t, time.Minute, r.interval)
	assert.Equal(t, defaultLockTTL, r.lockTTL)
}

func TestTickWithoutLock(t *testing.T) {
	var calls atomic.Int32
	r, err := NewRunner(RunnerOptions{Name: "process", Task: countingTask(&calls, 3, nil)})
	require.NoError(t, err)

	handled, err := r.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, handled)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTickSkipsWhenLockHeld(t *testing.T) {
	ctrl := gomock.NewController(t)
	lock := mocks.NewMockRunLock(ctrl)
	lock.EXPECT().Acquire(gomock.Any(), "ingest", time.Minute).Return("", false, nil)

	var calls atomic.Int32
	rec := &statsd.Recorder{}
	r, err := NewRunner(RunnerOptions{
		Name:    "ingest",
		Task:    countingTask(&calls, 1, nil),
		Lock:    lock,
		LockTTL: time.Minute,
		Metrics: rec,
	})
	require.NoError(t, err)

	r.tickAndReport(context.Background())

	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, int64(1), rec.Total("scheduler.tick", map[string]string{"task": "ingest", "result": "skipped"}))
}

func TestTickHoldsAndReleasesLock(t *testing.T) {
	ctrl := gomock.NewController(t)
	lock := mocks.NewMockRunLock(ctrl)
	gomock.InOrder(
		lock.EXPECT().Acquire(gomock.Any(), "process", time.Minute).Return("tok-1", true, nil),
		lock.EXPECT().Release(gomock.Any(), "process", "tok-1").Return(nil),
	)
	lock.EXPECT().Refresh(gomock.Any(), "process", "tok-1", time.Minute).Return(true, nil).AnyTimes()

	var calls atomic.Int32
	r, err := NewRunner(RunnerOptions{
		Name:    "process",
		Task:    countingTask(&calls, 5, nil),
		Lock:    lock,
		LockTTL: time.Minute,
	})
	require.NoError(t, err)

	handled, err := r.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, handled)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTickAcquireError(t *testing.T) {
	ctrl := gomock.NewController(t)
	lock := mocks.NewMockRunLock(ctrl)
	lock.EXPECT().Acquire(gomock.Any(), "ingest", gomock.Any()).Return("", false, errors.New("redis down"))

	var calls atomic.Int32
	r, err := NewRunner(RunnerOptions{Name: "ingest", Task: countingTask(&calls, 0, nil), Lock: lock})
	require.NoError(t, err)

	_, err = r.Tick(context.Background())
	require.ErrorContains(t, err, "acquire ingest lock")
	assert.Equal(t, int32(0), calls.Load())
}

func TestTickCancelsTaskWhenLockLost(t *testing.T) {
	ctrl := gomock.NewController(t)
	lock := mocks.NewMockRunLock(ctrl)
	ttl := 30 * time.Millisecond
	lock.EXPECT().Acquire(gomock.Any(), "ingest", ttl).Return("tok-1", true, nil)
	lock.EXPECT().Refresh(gomock.Any(), "ingest", "tok-1", ttl).Return(false, nil)
	lock.EXPECT().Release(gomock.Any(), "ingest", "tok-1").Return(nil)

	r, err := NewRunner(RunnerOptions{
		Name: "ingest",
		Task: func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		},
		Lock:    lock,
		LockTTL: ttl,
	})
	require.NoError(t, err)

	_, err = r.Tick(context.Background())
	require.ErrorIs(t, err, ErrLockLost)
}

func TestRunTicksImmediatelyAndStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	rec := &statsd.Recorder{}
	r, err := NewRunner(RunnerOptions{
		Name:     "process",
		Interval: time.Hour,
		Task: func(context.Context) (int, error) {
			calls.Add(1)
			cancel()
			return 2, nil
		},
		Metrics: rec,
	})
	require.NoError(t, err)

	require.NoError(t, r.Run(ctx))
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int64(1), rec.Total("scheduler.tick", map[string]string{"task": "process", "result": "success"}))
	assert.Equal(t, int64(2), rec.Total("scheduler.items", map[string]string{"task": "process"}))
}

func TestRunContinuesAfterTaskError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	rec := &statsd.Recorder{}
	r, err := NewRunner(RunnerOptions{
		Name:     "ingest",
		Interval: 5 * time.Millisecond,
		Task: func(context.Context) (int, error) {
			if calls.Add(1) >= 2 {
				cancel()
			}
			return 0, errors.New("list failed")
		},
		Metrics: rec,
	})
	require.NoError(t, err)

	require.NoError(t, r.Run(ctx))
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
	assert.GreaterOrEqual(t, rec.Total("scheduler.tick", map[string]string{"result": "error"}), int64(2))
}
