// loadgen гоняет виртуальных пользователей против sample-app и проверяет пороги латентности.
//
// Использование:
//
//	loadgen [flags] [target]
//
// Target по умолчанию берётся из K6_TARGET. Процесс завершается с кодом 99,
// если хотя бы один порог провален.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shestoi/sample-app/services/loadgen/internal/app"
	"github.com/shestoi/sample-app/services/loadgen/internal/config"
)

// version задаётся через ldflags при сборке.
var version = "dev"

// runFunc выполняет прогон и возвращает код выхода; в main это app.Run
type runFunc func(ctx context.Context, cfg config.Config, stdout, stderr io.Writer) (int, error)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return app.ExitConfig
	}

	exitCode := app.ExitOK
	rootCmd := newRootCmd(&cfg, &exitCode, app.Run)
	rootCmd.SetArgs(args)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		if exitCode == app.ExitOK {
			exitCode = app.ExitConfig
		}
	}
	return exitCode
}

// newRootCmd собирает корневую команду. Значения cfg, загруженные из окружения,
// служат дефолтами флагов, поэтому флаги их переопределяют.
// Код выхода прогона пишется в exitCode.
func newRootCmd(cfg *config.Config, exitCode *int, runLoad runFunc) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "loadgen [target]",
		Short:         "HTTP load generator with k6-style checks and thresholds",
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cfg.Target = args[0]
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			code, err := runLoad(ctx, *cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
			*exitCode = code
			return err
		},
	}

	flags := rootCmd.Flags()
	flags.IntVar(&cfg.VUs, "vus", cfg.VUs, "Number of virtual users")
	flags.DurationVar(&cfg.Duration, "duration", cfg.Duration, "Test duration")
	flags.DurationVar(&cfg.Sleep, "sleep", cfg.Sleep, "Pause between iterations of one VU")
	flags.DurationVar(&cfg.GracefulStop, "graceful-stop", cfg.GracefulStop, "Time for in-flight iterations to finish after duration")
	flags.DurationVar(&cfg.RequestTimeout, "request-timeout", cfg.RequestTimeout, "Timeout of a single HTTP request")
	flags.StringSliceVar(&cfg.Thresholds, "threshold", cfg.Thresholds, "Threshold expression, e.g. 'p(95)<500' or 'http_req_failed:rate<0.01'")
	flags.BoolVar(&cfg.JSON, "json", cfg.JSON, "Print summary as JSON")
	flags.BoolVar(&cfg.OTelEnabled, "otel", cfg.OTelEnabled, "Export client spans over OTLP")

	return rootCmd
}
