package runner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestRunner_AllChecksPass(t *testing.T) {
	var hits atomic.Int64
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	})

	r := New(Options{
		Target:       srv.URL + "/health",
		VUs:          3,
		Duration:     200 * time.Millisecond,
		Sleep:        20 * time.Millisecond,
		GracefulStop: time.Second,
	}, srv.Client(), zap.NewNop())

	snap, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, snap.VUs)
	assert.Equal(t, hits.Load(), snap.Requests)
	assert.GreaterOrEqual(t, snap.Requests, int64(3))
	assert.Equal(t, snap.Requests, snap.Iterations)
	assert.Zero(t, snap.FailedRequests)
	assert.Zero(t, snap.InterruptedIterations)
	assert.GreaterOrEqual(t, snap.Elapsed, 200*time.Millisecond)

	require.Len(t, snap.Checks, 1)
	assert.Equal(t, CheckStatus200, snap.Checks[0].Name)
	assert.Equal(t, snap.Requests, snap.Checks[0].Passes)
	assert.Zero(t, snap.Checks[0].Fails)
}

func TestRunner_Non200IsTalliedNotRaised(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	r := New(Options{
		Target:       srv.URL,
		VUs:          2,
		Duration:     100 * time.Millisecond,
		Sleep:        10 * time.Millisecond,
		GracefulStop: time.Second,
	}, srv.Client(), zap.NewNop())

	snap, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Checks, 1)
	assert.Zero(t, snap.Checks[0].Passes)
	assert.Equal(t, snap.Requests, snap.Checks[0].Fails)
	assert.Equal(t, snap.Requests, snap.FailedRequests)
	assert.Equal(t, snap.Requests, snap.Iterations)
}

func TestRunner_RedirectStatusIsNotFailedRequestButFailsCheck(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r := New(Options{Target: srv.URL, VUs: 1, Duration: 30 * time.Millisecond, Sleep: 10 * time.Millisecond, GracefulStop: time.Second},
		srv.Client(), zap.NewNop())

	snap, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, snap.FailedRequests)
	assert.Equal(t, snap.Requests, snap.Checks[0].Fails)
}

func TestRunner_ConnectionErrorsAreTallied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := srv.URL
	srv.Close()

	r := New(Options{
		Target:       target,
		VUs:          2,
		Duration:     50 * time.Millisecond,
		Sleep:        10 * time.Millisecond,
		GracefulStop: time.Second,
	}, &http.Client{Timeout: time.Second}, zap.NewNop())

	snap, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Greater(t, snap.Requests, int64(0))
	assert.Equal(t, snap.Requests, snap.FailedRequests)
	assert.Zero(t, snap.Durations.Count)
	assert.Equal(t, snap.Requests, snap.Checks[0].Fails)
}

func TestRunner_StopsIssuingIterationsAfterDuration(t *testing.T) {
	var hits atomic.Int64
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})

	r := New(Options{
		Target:       srv.URL,
		VUs:          2,
		Duration:     100 * time.Millisecond,
		Sleep:        40 * time.Millisecond,
		GracefulStop: time.Second,
	}, srv.Client(), zap.NewNop())

	snap, err := r.Run(context.Background())
	require.NoError(t, err)

	// не больше ceil(100/40) итераций на VU
	assert.LessOrEqual(t, snap.Iterations, int64(2*3))

	// после возврата Run новых запросов нет
	after := hits.Load()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, after, hits.Load())
}

func TestRunner_InFlightIterationCompletesWithinGracefulStop(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(150 * time.Millisecond)
	})

	r := New(Options{
		Target:       srv.URL,
		VUs:          1,
		Duration:     50 * time.Millisecond,
		Sleep:        0,
		GracefulStop: 2 * time.Second,
	}, srv.Client(), zap.NewNop())

	snap, err := r.Run(context.Background())
	require.NoError(t, err)

	// первая итерация началась до истечения Duration и доиграна
	assert.Equal(t, int64(1), snap.Iterations)
	assert.Zero(t, snap.InterruptedIterations)
	assert.Equal(t, 1, snap.Durations.Count)
}

func TestRunner_HardStopInterruptsIteration(t *testing.T) {
	release := make(chan struct{})
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	r := New(Options{
		Target:       srv.URL,
		VUs:          2,
		Duration:     20 * time.Millisecond,
		Sleep:        0,
		GracefulStop: 30 * time.Millisecond,
	}, srv.Client(), zap.NewNop())

	snap, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, snap.Iterations)
	assert.Equal(t, int64(2), snap.InterruptedIterations)
	assert.Zero(t, snap.Requests)
}

func TestRunner_ContextCancelAborts(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {})

	r := New(Options{
		Target:       srv.URL,
		VUs:          1,
		Duration:     time.Minute,
		Sleep:        10 * time.Millisecond,
		GracefulStop: time.Second,
	}, srv.Client(), zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	snap, err := r.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, snap.Requests, int64(0))
}

func TestRunner_RejectsZeroVUs(t *testing.T) {
	r := New(Options{Target: "http://localhost", VUs: 0, Duration: time.Second}, http.DefaultClient, zap.NewNop())

	_, err := r.Run(context.Background())
	require.Error(t, err)
}
