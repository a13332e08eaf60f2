package app

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shestoi/sample-app/platform/observability"
	"github.com/shestoi/sample-app/services/sampleapp/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		AppEnv:          config.EnvLocal,
		HTTPAddr:        "127.0.0.1:0",
		ShutdownTimeout: 2 * time.Second,
		LogLevel:        "error",
		Telemetry:       observability.Config{Disabled: true, ServiceName: config.ServiceName},
	}
}

func TestApp_ServesRoutesAndStops(t *testing.T) {
	application, err := Build(testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.RunContext(ctx) }()

	base := "http://" + application.Addr()

	resp, err := http.Get(base + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true,"service":"sample-app","version":"0.1.0"}`, string(body))

	resp, err = http.Get(base + "/")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "Hello from sample-app with OpenTelemetry!", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestBuild_InvalidTelemetryConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Telemetry = observability.Config{OTLPEndpoint: "collector:4318", SamplingRatio: 1, ServiceName: config.ServiceName}

	_, err := Build(cfg)
	require.Error(t, err)
}

func TestBuild_AddressInUse(t *testing.T) {
	first, err := Build(testConfig())
	require.NoError(t, err)
	defer first.listener.Close()

	cfg := testConfig()
	cfg.HTTPAddr = first.Addr()
	_, err = Build(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen")
}
