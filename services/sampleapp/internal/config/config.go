package config

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shestoi/sample-app/platform/envconfig"
	"github.com/shestoi/sample-app/platform/observability"
)

// Env представляет окружение приложения
type Env string

const (
	// EnvLocal - локальное окружение (для разработки на хосте)
	EnvLocal Env = "local"
	// EnvDocker - Docker окружение (для запуска в контейнерах)
	EnvDocker Env = "docker"
)

const (
	// ServiceName имя сервиса в health ответе и в resource телеметрии
	ServiceName = "sample-app"
	// ServiceVersion версия сервиса в health ответе
	ServiceVersion = "0.1.0"
	// HTTPPort порт, на котором слушает sample-app
	HTTPPort = "3000"
)

// Config содержит конфигурацию sample-app
type Config struct {
	AppEnv          Env           `env:"APP_ENV" envDefault:"local"`
	HTTPAddr        string        `env:"HTTP_ADDR"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
	LogLevel        string        `env:"LOG_LEVEL"`
	LogFormat       string        `env:"LOG_FORMAT"`

	// Telemetry читает OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_SDK_DISABLED и остальные OTEL_*
	Telemetry observability.Config
}

// Load загружает конфигурацию из переменных окружения
// и проставляет дефолты, зависящие от APP_ENV
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Load(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.AppEnv != EnvLocal && cfg.AppEnv != EnvDocker {
		return Config{}, fmt.Errorf("invalid APP_ENV: %s (must be 'local' or 'docker')", cfg.AppEnv)
	}

	// HTTP_ADDR
	if cfg.HTTPAddr == "" {
		if cfg.AppEnv == EnvLocal {
			cfg.HTTPAddr = "127.0.0.1:" + HTTPPort
		} else {
			cfg.HTTPAddr = "0.0.0.0:" + HTTPPort
		}
	}

	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = ServiceName
	}
	if cfg.Telemetry.ServiceVersion == "" {
		cfg.Telemetry.ServiceVersion = ServiceVersion
	}
	cfg.Telemetry.DeploymentEnvironment = string(cfg.AppEnv)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate проверяет корректность конфигурации
func (c Config) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR is required")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	return c.Telemetry.Validate()
}

// Log выводит конфигурацию в лог
func (c Config) Log(logger *zap.Logger) {
	logger.Info("Config loaded",
		zap.String("APP_ENV", string(c.AppEnv)),
		zap.String("HTTP_ADDR", c.HTTPAddr),
		zap.Duration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout),
		zap.Bool("OTEL_SDK_DISABLED", c.Telemetry.Disabled),
		zap.String("OTEL_EXPORTER_OTLP_ENDPOINT", c.Telemetry.OTLPEndpoint),
		zap.Float64("OTEL_SAMPLING_RATIO", c.Telemetry.SamplingRatio),
	)
}
