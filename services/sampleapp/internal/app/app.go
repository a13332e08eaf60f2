package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	platformhealth "github.com/shestoi/sample-app/platform/health/http"
	platformlogging "github.com/shestoi/sample-app/platform/logging"
	platformobservability "github.com/shestoi/sample-app/platform/observability"
	platformshutdown "github.com/shestoi/sample-app/platform/shutdown"
	httpapi "github.com/shestoi/sample-app/services/sampleapp/internal/api/http"
	"github.com/shestoi/sample-app/services/sampleapp/internal/config"
)

// App содержит все зависимости для запуска и корректного shutdown sample-app
type App struct {
	logger      *zap.Logger
	httpServer  *http.Server
	listener    net.Listener
	shutdownMgr *platformshutdown.Manager
	wg          sync.WaitGroup
}

// Build создаёт и настраивает все зависимости sample-app.
// Telemetry pipeline поднимается первым, до роутера, чтобы все запросы попадали в трейсы.
func Build(cfg config.Config) (*App, error) {
	const op = "app.Build"

	logger, err := platformlogging.New(platformlogging.Config{
		ServiceName: config.ServiceName,
		Env:         string(cfg.AppEnv),
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
	})
	if err != nil {
		return nil, err
	}

	logger = logger.With(zap.String("op", op))
	cfg.Log(logger)

	tel, err := platformobservability.Init(context.Background(), cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	handler := httpapi.NewHandler(logger)
	router := httpapi.NewRouter(handler, platformhealth.Info{
		Service: config.ServiceName,
		Version: config.ServiceVersion,
	}, tel, logger)

	listener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		_ = tel.Shutdown(context.Background())
		return nil, fmt.Errorf("%s: listen %s: %w", op, cfg.HTTPAddr, err)
	}

	httpServer := &http.Server{
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	shutdownMgr := platformshutdown.New(cfg.ShutdownTimeout, logger)

	// Выполняются в обратном порядке: сначала дренируем HTTP, потом сбрасываем телеметрию,
	// чтобы spans последних запросов успели уйти в collector
	shutdownMgr.Add("telemetry", tel.Shutdown)
	shutdownMgr.Add("http_server", platformshutdown.ShutdownHTTPServer(httpServer))

	return &App{
		logger:      logger,
		httpServer:  httpServer,
		listener:    listener,
		shutdownMgr: shutdownMgr,
	}, nil
}

// Addr адрес, на котором слушает сервер
func (a *App) Addr() string {
	return a.listener.Addr().String()
}

// Run запускает сервис и блокируется до получения сигнала shutdown
func (a *App) Run() error {
	return a.RunContext(context.Background())
}

// RunContext как Run, но shutdown начинается также при отмене ctx
func (a *App) RunContext(ctx context.Context) error {
	defer platformlogging.Sync(a.logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.logger.Info("sample-app listening", zap.String("addr", a.Addr()))
	a.logger.Info("Health check available", zap.String("url", "http://"+a.Addr()+"/health"))

	serveErr := make(chan error, 1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.httpServer.Serve(a.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server error", zap.Error(err))
			serveErr <- err
			cancel()
		}
	}()

	shutdownErr := a.shutdownMgr.WaitContext(ctx)

	a.wg.Wait()
	a.logger.Info("sample-app stopped")

	select {
	case err := <-serveErr:
		return err
	default:
		return shutdownErr
	}
}
