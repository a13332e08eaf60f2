package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv сбрасывает переменные, которые читает Load
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "HTTP_ADDR", "SHUTDOWN_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT",
		"OTEL_SDK_DISABLED", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_SAMPLING_RATIO",
		"OTEL_SERVICE_NAME", "SERVICE_VERSION",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_LocalDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvLocal, cfg.AppEnv)
	assert.Equal(t, "127.0.0.1:3000", cfg.HTTPAddr)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.Telemetry.Enabled())
	assert.Equal(t, "http://localhost:4318", cfg.Telemetry.OTLPEndpoint)
	assert.Equal(t, "http://localhost:4318/v1/traces", cfg.Telemetry.TracesURL())
	assert.Equal(t, "http://localhost:4318/v1/metrics", cfg.Telemetry.MetricsURL())
	assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
	assert.Equal(t, "sample-app", cfg.Telemetry.ServiceName)
	assert.Equal(t, "0.1.0", cfg.Telemetry.ServiceVersion)
	assert.Equal(t, "local", cfg.Telemetry.DeploymentEnvironment)
}

func TestLoad_DockerDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "docker")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDocker, cfg.AppEnv)
	assert.Equal(t, "0.0.0.0:3000", cfg.HTTPAddr)
	assert.Equal(t, "docker", cfg.Telemetry.DeploymentEnvironment)
}

func TestLoad_CollectorEndpointFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://otel-collector:4318")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://otel-collector:4318/v1/traces", cfg.Telemetry.TracesURL())
	assert.Equal(t, "http://otel-collector:4318/v1/metrics", cfg.Telemetry.MetricsURL())
}

func TestLoad_TelemetryDisabled(t *testing.T) {
	clearEnv(t)
	t.Setenv("OTEL_SDK_DISABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "not-validated")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Telemetry.Enabled())
}

func TestLoad_InvalidAppEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "prod")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid APP_ENV")
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidCollectorEndpoint(t *testing.T) {
	clearEnv(t)
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4318")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OTEL_EXPORTER_OTLP_ENDPOINT")
}
