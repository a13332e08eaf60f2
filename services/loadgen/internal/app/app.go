// Package app собирает прогон генератора нагрузки: logger, telemetry, runner,
// проверку порогов и итоговый отчёт.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	platformlogging "github.com/shestoi/sample-app/platform/logging"
	platformobservability "github.com/shestoi/sample-app/platform/observability"
	"github.com/shestoi/sample-app/services/loadgen/internal/config"
	"github.com/shestoi/sample-app/services/loadgen/internal/report"
	"github.com/shestoi/sample-app/services/loadgen/internal/runner"
	"github.com/shestoi/sample-app/services/loadgen/internal/threshold"
)

// Коды выхода процесса, совместимые с k6
const (
	ExitOK               = 0
	ExitConfig           = 1
	ExitThresholdsFailed = 99
	ExitAborted          = 105
)

// telemetryFlushTimeout ограничивает сброс client spans после прогона
const telemetryFlushTimeout = 5 * time.Second

// Run выполняет один прогон по cfg, печатает отчёт в stdout, логи пишет в stderr.
// Возвращает код выхода процесса. Ошибка возвращается только вместе с кодом != ExitOK.
func Run(ctx context.Context, cfg config.Config, stdout, stderr io.Writer) (int, error) {
	const op = "app.Run"

	if err := cfg.Validate(); err != nil {
		return ExitConfig, fmt.Errorf("%s: %w", op, err)
	}
	thresholds, err := cfg.ParsedThresholds()
	if err != nil {
		return ExitConfig, fmt.Errorf("%s: %w", op, err)
	}

	logger, err := platformlogging.New(platformlogging.Config{
		ServiceName: config.ServiceName,
		Env:         cfg.AppEnv,
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		Output:      stderr,
	})
	if err != nil {
		return ExitConfig, fmt.Errorf("%s: %w", op, err)
	}
	defer platformlogging.Sync(logger)

	cfg.Log(logger)

	tel, err := platformobservability.Init(ctx, cfg.TelemetryConfig(), logger)
	if err != nil {
		return ExitConfig, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		// ctx к этому моменту может быть отменён сигналом, сбрасываем на своём таймауте
		flushCtx, cancel := context.WithTimeout(context.Background(), telemetryFlushTimeout)
		defer cancel()
		if err := tel.Shutdown(flushCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}()

	client := platformobservability.NewHTTPClient(tel, cfg.RequestTimeout, cfg.VUs)
	r := runner.New(runner.Options{
		Target:       cfg.Target,
		VUs:          cfg.VUs,
		Duration:     cfg.Duration,
		Sleep:        cfg.Sleep,
		GracefulStop: cfg.GracefulStop,
	}, client, logger)

	snap, runErr := r.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return ExitConfig, fmt.Errorf("%s: %w", op, runErr)
	}

	results, err := threshold.EvaluateAll(thresholds, snap)
	if err != nil {
		return ExitConfig, fmt.Errorf("%s: %w", op, err)
	}

	summary := report.NewSummary(cfg.Target, snap, results)
	if err := report.Print(stdout, summary, cfg.JSON); err != nil {
		return ExitConfig, fmt.Errorf("%s: print summary: %w", op, err)
	}

	if runErr != nil {
		logger.Warn("Load run aborted", zap.Error(runErr))
		return ExitAborted, runErr
	}
	if !summary.Passed {
		logger.Error("Some thresholds have failed")
		return ExitThresholdsFailed, errors.New("some thresholds have failed")
	}
	return ExitOK, nil
}
