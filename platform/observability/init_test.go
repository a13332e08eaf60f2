package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeCollector принимает OTLP/HTTP запросы и считает их по путям
type fakeCollector struct {
	mu    sync.Mutex
	paths map[string]int
	srv   *httptest.Server
}

func newFakeCollector(t *testing.T) *fakeCollector {
	t.Helper()
	c := &fakeCollector{paths: map[string]int{}}
	c.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		c.paths[r.URL.Path]++
		c.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(c.srv.Close)
	return c
}

func (c *fakeCollector) count(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paths[path]
}

func TestInit_DisabledUsesNoop(t *testing.T) {
	ctx := context.Background()

	tel, err := Init(ctx, Config{Disabled: true}, nil)
	require.NoError(t, err)

	_, span := tel.TracerProvider().Tracer("test").Start(ctx, "op")
	assert.False(t, span.IsRecording())
	span.End()

	assert.NoError(t, tel.Shutdown(ctx))
}

func TestInit_InvalidEndpoint(t *testing.T) {
	_, err := Init(context.Background(), Config{
		OTLPEndpoint:  "localhost:4318",
		SamplingRatio: 1,
		ServiceName:   "sample-app",
	}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func TestInit_ExportsTracesAndMetricsToCollector(t *testing.T) {
	ctx := context.Background()
	collector := newFakeCollector(t)

	tel, err := Init(ctx, Config{
		OTLPEndpoint:   collector.srv.URL,
		SamplingRatio:  1,
		ServiceName:    "sample-app",
		ServiceVersion: "0.1.0",
	}, zap.NewNop())
	require.NoError(t, err)

	_, span := tel.TracerProvider().Tracer("test").Start(ctx, "op")
	assert.True(t, span.IsRecording())
	span.End()

	counter, err := tel.MeterProvider().Meter("test").Int64Counter("test.requests")
	require.NoError(t, err)
	counter.Add(ctx, 1)

	// Shutdown сбрасывает batch span processor и делает финальный collect у PeriodicReader
	require.NoError(t, tel.Shutdown(ctx))

	assert.GreaterOrEqual(t, collector.count("/v1/traces"), 1)
	assert.GreaterOrEqual(t, collector.count("/v1/metrics"), 1)
	assert.Len(t, collector.paths, 2, "unexpected paths: %v", collector.paths)
}

func TestInit_UnreachableCollectorDoesNotFailStartup(t *testing.T) {
	ctx := context.Background()

	// 192.0.2.0/24 (TEST-NET-1) не маршрутизируется
	tel, err := Init(ctx, Config{
		OTLPEndpoint:  "http://192.0.2.1:4318",
		SamplingRatio: 1,
		ServiceName:   "sample-app",
	}, zap.NewNop())
	require.NoError(t, err)

	_, span := tel.TracerProvider().Tracer("test").Start(ctx, "op")
	span.End()

	// не ждём ретраев exporter'а
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_ = tel.Shutdown(cancelled)
}
