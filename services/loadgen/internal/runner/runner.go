// Package runner гоняет виртуальных пользователей (VU) против одного HTTP target.
//
// Каждый VU крутит итерации: GET target, проверка status == 200, пауза.
// После Duration новые итерации не начинаются, начатые доигрываются,
// но не дольше GracefulStop. VU друг о друге не знают, общий у них только metrics.Sink.
package runner

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shestoi/sample-app/services/loadgen/internal/metrics"
)

// CheckStatus200 имя проверки статуса ответа
const CheckStatus200 = "status was 200"

// Doer выполняет HTTP запрос; *http.Client подходит
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options параметры прогона
type Options struct {
	Target       string
	VUs          int
	Duration     time.Duration
	Sleep        time.Duration
	GracefulStop time.Duration
}

// Runner выполняет один прогон
type Runner struct {
	opts   Options
	client Doer
	sink   *metrics.Sink
	logger *zap.Logger
}

// New создаёт Runner
func New(opts Options, client Doer, logger *zap.Logger) *Runner {
	return &Runner{
		opts:   opts,
		client: client,
		sink:   metrics.NewSink(),
		logger: logger,
	}
}

// Run запускает VU и ждёт их завершения.
// Возвращает снимок метрик; ошибка только если прогон оборван отменой ctx,
// снимок при этом всё равно заполнен.
func (r *Runner) Run(ctx context.Context) (metrics.Snapshot, error) {
	if r.opts.VUs < 1 {
		return metrics.Snapshot{}, fmt.Errorf("vus must be >= 1, got %d", r.opts.VUs)
	}

	start := time.Now()
	deadline := start.Add(r.opts.Duration)

	// hard stop: итерации, не успевшие за GracefulStop, прерываются
	hardCtx, cancel := context.WithDeadline(ctx, deadline.Add(r.opts.GracefulStop))
	defer cancel()

	r.logger.Info("Starting load run",
		zap.String("target", r.opts.Target),
		zap.Int("vus", r.opts.VUs),
		zap.Duration("duration", r.opts.Duration),
		zap.Duration("graceful_stop", r.opts.GracefulStop))

	var g errgroup.Group
	for vu := 1; vu <= r.opts.VUs; vu++ {
		id := vu
		g.Go(func() error {
			r.runVU(hardCtx, id, deadline)
			return nil
		})
	}
	_ = g.Wait()

	snap := r.sink.Snapshot()
	snap.VUs = r.opts.VUs
	snap.Elapsed = time.Since(start)

	r.logger.Info("Load run finished",
		zap.Int64("iterations", snap.Iterations),
		zap.Int64("interrupted", snap.InterruptedIterations),
		zap.Duration("elapsed", snap.Elapsed))

	if err := ctx.Err(); err != nil {
		return snap, fmt.Errorf("load run aborted: %w", err)
	}
	return snap, nil
}

func (r *Runner) runVU(ctx context.Context, id int, deadline time.Time) {
	logger := r.logger.With(zap.Int("vu", id))
	for {
		if ctx.Err() != nil || !time.Now().Before(deadline) {
			return
		}
		if !r.iteration(ctx, logger) {
			r.sink.AddInterrupted()
			return
		}
		r.sink.AddIteration()
	}
}

// iteration возвращает false, если итерацию оборвал hard stop
func (r *Runner) iteration(ctx context.Context, logger *zap.Logger) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.opts.Target, nil)
	if err != nil {
		logger.Error("Failed to build request", zap.Error(err))
		r.sink.AddTransportError()
		r.sink.AddCheck(CheckStatus200, false)
		return r.sleep(ctx)
	}

	started := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		logger.Debug("Request failed", zap.Error(err))
		r.sink.AddTransportError()
		r.sink.AddCheck(CheckStatus200, false)
		return r.sleep(ctx)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	elapsed := time.Since(started)

	// как в k6: запрос провален при статусе вне 200..399
	r.sink.AddRequest(elapsed, resp.StatusCode < 200 || resp.StatusCode >= 400)
	r.sink.AddCheck(CheckStatus200, resp.StatusCode == http.StatusOK)
	if resp.StatusCode != http.StatusOK {
		logger.Debug("Unexpected status", zap.Int("status", resp.StatusCode))
	}

	return r.sleep(ctx)
}

func (r *Runner) sleep(ctx context.Context) bool {
	if r.opts.Sleep <= 0 {
		return true
	}
	t := time.NewTimer(r.opts.Sleep)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
