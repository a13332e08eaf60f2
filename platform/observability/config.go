package observability

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DefaultEndpoint адрес OTLP/HTTP collector, если OTEL_EXPORTER_OTLP_ENDPOINT не задан
const DefaultEndpoint = "http://localhost:4318"

const (
	tracesPath  = "/v1/traces"
	metricsPath = "/v1/metrics"
)

// Config конфигурация OpenTelemetry (traces + metrics + propagator)
type Config struct {
	// Disabled выключает экспорт, ставятся noop providers
	Disabled bool `env:"OTEL_SDK_DISABLED"`
	// OTLPEndpoint базовый URL OTLP/HTTP collector, например "http://otel-collector:4318".
	// Пути /v1/traces и /v1/metrics добавляются к нему.
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"http://localhost:4318"`
	// SamplingRatio доля трасс для семплирования (0..1), 1.0 = все
	SamplingRatio float64 `env:"OTEL_SAMPLING_RATIO" envDefault:"1"`
	// ServiceName имя сервиса (sample-app, loadgen)
	ServiceName string `env:"OTEL_SERVICE_NAME"`
	// ServiceVersion версия сборки
	ServiceVersion string `env:"SERVICE_VERSION"`
	// DeploymentEnvironment окружение (local, docker), берётся из APP_ENV сервиса
	DeploymentEnvironment string
	// MetricInterval период PeriodicReader; 0 = значение библиотеки
	// (60s или OTEL_METRIC_EXPORT_INTERVAL)
	MetricInterval time.Duration
}

// Enabled true, если экспорт включён
func (c Config) Enabled() bool {
	return !c.Disabled
}

// TracesURL полный URL для trace exporter: <endpoint>/v1/traces
func (c Config) TracesURL() string {
	return c.baseURL() + tracesPath
}

// MetricsURL полный URL для metric exporter: <endpoint>/v1/metrics
func (c Config) MetricsURL() string {
	return c.baseURL() + metricsPath
}

func (c Config) baseURL() string {
	endpoint := c.OTLPEndpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return strings.TrimSuffix(endpoint, "/")
}

// Validate проверяет конфигурацию. При Disabled проверять нечего.
func (c Config) Validate() error {
	if c.Disabled {
		return nil
	}
	u, err := url.Parse(c.baseURL())
	if err != nil {
		return fmt.Errorf("invalid OTEL_EXPORTER_OTLP_ENDPOINT: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid OTEL_EXPORTER_OTLP_ENDPOINT: scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid OTEL_EXPORTER_OTLP_ENDPOINT: host is required")
	}
	if c.SamplingRatio < 0 || c.SamplingRatio > 1 {
		return fmt.Errorf("OTEL_SAMPLING_RATIO must be in [0, 1], got %v", c.SamplingRatio)
	}
	if c.ServiceName == "" {
		return fmt.Errorf("OTEL_SERVICE_NAME is required")
	}
	return nil
}
