package config

import (
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/shestoi/sample-app/platform/envconfig"
	"github.com/shestoi/sample-app/platform/observability"
	"github.com/shestoi/sample-app/services/loadgen/internal/threshold"
)

// ServiceName имя процесса в логах и телеметрии
const ServiceName = "loadgen"

// DefaultTarget адрес health endpoint sample-app внутри docker сети
const DefaultTarget = "http://sample_app:3000/health"

// Config содержит конфигурацию генератора нагрузки.
// Флаги командной строки переопределяют значения из окружения.
type Config struct {
	AppEnv         string        `env:"APP_ENV" envDefault:"local"`
	Target         string        `env:"K6_TARGET" envDefault:"http://sample_app:3000/health"`
	VUs            int           `env:"LOADGEN_VUS" envDefault:"5"`
	Duration       time.Duration `env:"LOADGEN_DURATION" envDefault:"30s"`
	Sleep          time.Duration `env:"LOADGEN_SLEEP" envDefault:"1s"`
	GracefulStop   time.Duration `env:"LOADGEN_GRACEFUL_STOP" envDefault:"30s"`
	RequestTimeout time.Duration `env:"LOADGEN_REQUEST_TIMEOUT" envDefault:"60s"`
	Thresholds     []string      `env:"LOADGEN_THRESHOLDS" envSeparator:"," envDefault:"p(95)<500"`
	JSON           bool          `env:"LOADGEN_JSON"`
	LogLevel       string        `env:"LOG_LEVEL"`
	LogFormat      string        `env:"LOG_FORMAT"`

	// OTelEnabled включает экспорт client spans генератора; по умолчанию выключен
	OTelEnabled bool `env:"LOADGEN_OTEL_ENABLED"`
	Telemetry   observability.Config
}

// Load загружает конфигурацию из переменных окружения
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Load(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// TelemetryConfig конфигурация pipeline с учётом LOADGEN_OTEL_ENABLED
func (c Config) TelemetryConfig() observability.Config {
	tc := c.Telemetry
	tc.Disabled = tc.Disabled || !c.OTelEnabled
	if tc.ServiceName == "" {
		tc.ServiceName = ServiceName
	}
	tc.DeploymentEnvironment = c.AppEnv
	return tc
}

// ParsedThresholds разбирает выражения порогов
func (c Config) ParsedThresholds() ([]threshold.Threshold, error) {
	return threshold.ParseAll(c.Thresholds)
}

// Validate проверяет корректность конфигурации
func (c Config) Validate() error {
	u, err := url.Parse(c.Target)
	if err != nil {
		return fmt.Errorf("invalid K6_TARGET: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid K6_TARGET: %q must be an absolute http(s) URL", c.Target)
	}
	if c.VUs < 1 {
		return fmt.Errorf("vus must be >= 1, got %d", c.VUs)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	if c.Sleep < 0 {
		return fmt.Errorf("sleep must not be negative")
	}
	if c.GracefulStop < 0 {
		return fmt.Errorf("graceful stop must not be negative")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if _, err := c.ParsedThresholds(); err != nil {
		return err
	}
	return c.TelemetryConfig().Validate()
}

// Log выводит конфигурацию в лог
func (c Config) Log(logger *zap.Logger) {
	logger.Info("Config loaded",
		zap.String("K6_TARGET", c.Target),
		zap.Int("vus", c.VUs),
		zap.Duration("duration", c.Duration),
		zap.Duration("sleep", c.Sleep),
		zap.Duration("graceful_stop", c.GracefulStop),
		zap.Strings("thresholds", c.Thresholds),
		zap.Bool("otel_enabled", c.OTelEnabled),
	)
}
