package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/shestoi/sample-app/platform/observability"

// unmatchedRoute значение http.route для запросов, не попавших ни в один маршрут
const unmatchedRoute = "unmatched"

// HTTPMiddleware возвращает chi/http middleware: извлекает trace context, создаёт span на запрос,
// пишет длительность и счётчик запросов в метрики, кладёт logger с trace_id в контекст.
//
// http.route берётся из chi route pattern после маршрутизации, а не из пути запроса:
// иначе каждый новый путь (включая 404) порождает отдельную серию метрик.
func HTTPMiddleware(tel *Telemetry, logger *zap.Logger) func(http.Handler) http.Handler {
	tracer := tel.TracerProvider().Tracer(instrumentationName)
	meter := tel.MeterProvider().Meter(instrumentationName)
	prop := tel.Propagator()

	duration, err := meter.Float64Histogram("http.server.request.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of HTTP server requests."))
	if err != nil {
		logger.Warn("Failed to create duration histogram", zap.Error(err))
	}
	requests, err := meter.Int64Counter("http.server.requests",
		metric.WithUnit("{request}"),
		metric.WithDescription("Number of HTTP server requests."))
	if err != nil {
		logger.Warn("Failed to create requests counter", zap.Error(err))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := prop.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			ctx, span := tracer.Start(ctx, r.Method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.request.method", r.Method),
					attribute.String("url.path", r.URL.Path),
				),
			)
			defer span.End()

			ctx = withLogger(ctx, L(ctx, logger))

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r.WithContext(ctx))

			route := routePattern(r)
			if route != unmatchedRoute {
				span.SetName(r.Method + " " + route)
			}

			statusCode := wrapped.statusCode
			span.SetAttributes(
				attribute.String("http.route", route),
				attribute.Int("http.response.status_code", statusCode),
			)
			if statusCode >= 500 {
				span.SetStatus(codes.Error, strconv.Itoa(statusCode))
			}

			attrs := metric.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("http.route", route),
				attribute.Int("http.response.status_code", statusCode),
			)
			if duration != nil {
				duration.Record(ctx, time.Since(start).Seconds(), attrs)
			}
			if requests != nil {
				requests.Add(ctx, 1, attrs)
			}
		})
	}
}

// routePattern шаблон маршрута, который выбрал chi, например "/items/{id}".
// chi заполняет его в route context по ходу ServeHTTP, поэтому читать после next.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return unmatchedRoute
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

// WriteHeader запоминает первый статус код ответа
func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}
