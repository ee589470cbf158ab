package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/review-ingest/config"
	"github.com/target/review-ingest/internal/core"
	"github.com/target/review-ingest/internal/observability/metrics"
	"github.com/target/review-ingest/internal/observability/statsd"
)

// reaperStep is the scripted behavior of one repository method: it returns count on
// the first call and 0 afterwards, or err on every call.
type reaperStep struct {
	count  int64
	err    error
	calls  int
	params []core.StaleParams
}

func (s *reaperStep) call(params core.StaleParams) (int64, error) {
	s.calls++
	s.params = append(s.params, params)
	if s.err != nil {
		return 0, s.err
	}
	if s.calls == 1 {
		return s.count, nil
	}
	return 0, nil
}

type mockReaperRepo struct {
	mu      sync.Mutex
	records reaperStep
	files   reaperStep
	runs    reaperStep
}

var _ core.ReaperRepository = (*mockReaperRepo)(nil)

func (m *mockReaperRepo) RequeueStaleRecords(_ context.Context, p core.StaleParams) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records.call(p)
}

func (m *mockReaperRepo) FailStaleFiles(_ context.Context, p core.StaleParams) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.files.call(p)
}

func (m *mockReaperRepo) DeleteOldJobRuns(_ context.Context, p core.StaleParams) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs.call(p)
}

func (m *mockReaperRepo) recordCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records.calls
}

func testReaperConfig() config.ReaperConfig {
	return config.ReaperConfig{
		Interval:               5 * time.Minute,
		RecordProcessingMaxAge: 30 * time.Minute,
		FileProcessingMaxAge:   2 * time.Hour,
		JobRunMaxAge:           30 * 24 * time.Hour,
		BatchSize:              1000,
	}
}

func TestNewReaperService(t *testing.T) {
	t.Run("creates service with valid options", func(t *testing.T) {
		svc, err := NewReaperService(ReaperServiceOptions{
			Repo:   &mockReaperRepo{},
			Config: testReaperConfig(),
			Logger: slog.Default(),
		})

		require.NoError(t, err)
		assert.NotNil(t, svc)
	})

	t.Run("returns error when repo is nil", func(t *testing.T) {
		_, err := NewReaperService(ReaperServiceOptions{Config: testReaperConfig()})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "ReaperRepository is required")
	})
}

func TestReaperService_RunOnce(t *testing.T) {
	t.Run("runs every step until exhausted", func(t *testing.T) {
		repo := &mockReaperRepo{
			records: reaperStep{count: 5},
			files:   reaperStep{count: 2},
			runs:    reaperStep{count: 7},
		}
		rec := &statsd.Recorder{}
		svc, err := NewReaperService(ReaperServiceOptions{Repo: repo, Config: testReaperConfig(), Metrics: rec})
		require.NoError(t, err)

		res, err := svc.RunOnce(context.Background())

		require.NoError(t, err)
		assert.Equal(t, &ReaperResult{RecordsRequeued: 5, FilesFailed: 2, RunsPruned: 7}, res)
		// Each step is called once returning a count, then once returning 0.
		assert.Equal(t, 2, repo.records.calls)
		assert.Equal(t, 2, repo.files.calls)
		assert.Equal(t, 2, repo.runs.calls)

		assert.Equal(t, core.StaleParams{MaxAge: 30 * time.Minute, BatchSize: 1000}, repo.records.params[0])
		assert.Equal(t, core.StaleParams{MaxAge: 2 * time.Hour, BatchSize: 1000}, repo.files.params[0])
		assert.Equal(t, core.StaleParams{MaxAge: 30 * 24 * time.Hour, BatchSize: 1000}, repo.runs.params[0])

		assert.Equal(t, int64(5), rec.Total("reaper."+ReaperStepRequeueRecords, nil))
		assert.Equal(t, int64(2), rec.Total("reaper."+ReaperStepFailFiles, nil))
		assert.Equal(t, int64(7), rec.Total("reaper."+ReaperStepPruneRuns, nil))
		assert.Equal(t, int64(3), rec.Total(metrics.MetricReaperCleanup, map[string]string{"result": metrics.ResultSuccess}))
	})

	t.Run("skips pruning when job run max age is zero", func(t *testing.T) {
		repo := &mockReaperRepo{runs: reaperStep{count: 3}}
		cfg := testReaperConfig()
		cfg.JobRunMaxAge = 0
		svc, _ := NewReaperService(ReaperServiceOptions{Repo: repo, Config: cfg})

		res, err := svc.RunOnce(context.Background())

		require.NoError(t, err)
		assert.Zero(t, res.RunsPruned)
		assert.Zero(t, repo.runs.calls)
	})

	t.Run("continues on partial errors", func(t *testing.T) {
		repo := &mockReaperRepo{
			records: reaperStep{err: errors.New("connection reset")},
			files:   reaperStep{count: 1},
		}
		rec := &statsd.Recorder{}
		svc, _ := NewReaperService(ReaperServiceOptions{Repo: repo, Config: testReaperConfig(), Metrics: rec})

		res, err := svc.RunOnce(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "requeue stale records")
		assert.Equal(t, 1, repo.records.calls)
		assert.Equal(t, 2, repo.files.calls)
		assert.Equal(t, 1, repo.runs.calls)
		assert.Equal(t, int64(1), res.FilesFailed)
		assert.Equal(t, int64(1), rec.Total(metrics.MetricReaperCleanup, map[string]string{"result": metrics.ResultError}))
	})

	t.Run("reports cancellation when every failure is a context error", func(t *testing.T) {
		repo := &mockReaperRepo{
			records: reaperStep{err: context.Canceled},
			files:   reaperStep{err: context.Canceled},
			runs:    reaperStep{err: context.Canceled},
		}
		svc, _ := NewReaperService(ReaperServiceOptions{Repo: repo, Config: testReaperConfig()})

		_, err := svc.RunOnce(context.Background())

		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestReaperService_Run(t *testing.T) {
	t.Run("stops on context cancellation", func(t *testing.T) {
		repo := &mockReaperRepo{}
		cfg := testReaperConfig()
		cfg.Interval = 100 * time.Millisecond
		svc, _ := NewReaperService(ReaperServiceOptions{Repo: repo, Config: cfg})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- svc.Run(ctx)
		}()

		time.Sleep(150 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("Run did not stop after context cancellation")
		}
		assert.GreaterOrEqual(t, repo.recordCalls(), 1)
	})

	t.Run("continues running despite cleanup errors", func(t *testing.T) {
		repo := &mockReaperRepo{records: reaperStep{err: errors.New("test error")}}
		cfg := testReaperConfig()
		cfg.Interval = 50 * time.Millisecond
		svc, _ := NewReaperService(ReaperServiceOptions{Repo: repo, Config: cfg})

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		err := svc.Run(ctx)

		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.GreaterOrEqual(t, repo.recordCalls(), 2)
	})
}
