package observability

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewHTTPClient возвращает http.Client, у которого каждый исходящий запрос
// получает client span, метрики otelhttp и заголовок traceparent.
// maxConnsPerHost ограничивает пул idle соединений к одному хосту (0 = дефолт net/http).
func NewHTTPClient(tel *Telemetry, timeout time.Duration, maxConnsPerHost int) *http.Client {
	base := http.DefaultTransport.(*http.Transport).Clone()
	if maxConnsPerHost > 0 {
		base.MaxIdleConnsPerHost = maxConnsPerHost
	}

	return &http.Client{
		Timeout: timeout,
		Transport: otelhttp.NewTransport(base,
			otelhttp.WithTracerProvider(tel.TracerProvider()),
			otelhttp.WithMeterProvider(tel.MeterProvider()),
			otelhttp.WithPropagators(tel.Propagator()),
		),
	}
}
