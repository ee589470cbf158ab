package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPosterRetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"ok":true}`, string(body))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if calls.Add(1) == 1 {
			http.Error(w, "try again", http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewPoster("webhook", srv.Client(), time.Second, 2)
	p.Backoff = time.Millisecond

	require.NoError(t, p.Post(context.Background(), srv.URL, []byte(`{"ok":true}`)))
	assert.Equal(t, int32(2), calls.Load())
}

func TestPosterReturnsLastError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad routing key", http.StatusBadRequest)
	}))
	defer srv.Close()

	p := NewPoster("pagerduty api", srv.Client(), time.Second, 1)
	p.Backoff = time.Millisecond

	err := p.Post(context.Background(), srv.URL, []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pagerduty api 400 Bad Request: bad routing key")
}

func TestPosterStopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	p := NewPoster("webhook", srv.Client(), time.Second, 5)
	p.Backoff = time.Hour
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	assert.ErrorIs(t, p.Post(ctx, srv.URL, []byte(`{}`)), context.Canceled)
}

func TestRunFailureDedupKey(t *testing.T) {
	assert.Equal(t, "ingest:r1", RunFailure{JobType: "ingest", RunID: "r1"}.DedupKey())
	assert.Equal(t, "r1", RunFailure{RunID: "r1"}.DedupKey())
	assert.Equal(t, "process", RunFailure{JobType: "process"}.DedupKey())
}
