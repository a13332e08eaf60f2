package observability

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Telemetry держит telemetry pipeline процесса: providers, propagator и shutdown.
// Создаётся один раз через Init и явно передаётся в middleware и http client,
// глобальные providers не трогаются.
type Telemetry struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	propagator     propagation.TextMapPropagator
	shutdown       func(context.Context) error
}

// Init собирает pipeline: OTLP/HTTP trace exporter на <endpoint>/v1/traces с BatchSpanProcessor,
// OTLP/HTTP metric exporter на <endpoint>/v1/metrics внутри PeriodicReader.
// Если экспорт выключен, возвращает noop providers.
//
// Ошибки экспорта (collector недоступен и т.п.) в приложение не возвращаются:
// exporter сам ретраит или отбрасывает батч, а ошибка уходит в logger на уровне warn.
func Init(ctx context.Context, cfg Config, logger *zap.Logger) (*Telemetry, error) {
	prop := propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)

	if !cfg.Enabled() {
		return &Telemetry{
			tracerProvider: nooptrace.NewTracerProvider(),
			meterProvider:  noopmetric.NewMeterProvider(),
			propagator:     prop,
			shutdown:       func(context.Context) error { return nil },
		}, nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if logger != nil {
		otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
			logger.Warn("OpenTelemetry export error", zap.Error(err))
		}))
	}

	attrs := []attribute.KeyValue{
		attribute.String("service.name", cfg.ServiceName),
	}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, attribute.String("service.version", cfg.ServiceVersion))
	}
	if cfg.DeploymentEnvironment != "" {
		attrs = append(attrs, attribute.String("deployment.environment", cfg.DeploymentEnvironment))
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(attrs...),
		resource.WithProcessRuntimeDescription(),
	)
	if err != nil {
		return nil, fmt.Errorf("observability resource: %w", err)
	}

	traceExp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.TracesURL()))
	if err != nil {
		return nil, fmt.Errorf("otlp trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SamplingRatio))),
	)

	metricExp, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpointURL(cfg.MetricsURL()))
	if err != nil {
		_ = tp.Shutdown(context.Background())
		return nil, fmt.Errorf("otlp metric exporter: %w", err)
	}
	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.MetricInterval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.MetricInterval))
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp, readerOpts...)),
	)

	if logger != nil {
		logger.Info("OpenTelemetry pipeline started",
			zap.String("traces_url", cfg.TracesURL()),
			zap.String("metrics_url", cfg.MetricsURL()),
			zap.Float64("sampling_ratio", cfg.SamplingRatio))
	}

	return &Telemetry{
		tracerProvider: tp,
		meterProvider:  mp,
		propagator:     prop,
		shutdown: func(ctx context.Context) error {
			// оба провайдера сбрасываем даже если первый вернул ошибку
			return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
		},
	}, nil
}

// TracerProvider возвращает provider для создания tracer'ов
func (t *Telemetry) TracerProvider() trace.TracerProvider {
	return t.tracerProvider
}

// MeterProvider возвращает provider для создания meter'ов
func (t *Telemetry) MeterProvider() metric.MeterProvider {
	return t.meterProvider
}

// Propagator возвращает W3C TraceContext + Baggage propagator
func (t *Telemetry) Propagator() propagation.TextMapPropagator {
	return t.propagator
}

// Shutdown сбрасывает накопленные spans и metrics в collector и останавливает exporters.
// Регистрируется в platform/shutdown последним шагом.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return t.shutdown(ctx)
}
