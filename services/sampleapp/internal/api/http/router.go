package httpapi

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	platformhealth "github.com/shestoi/sample-app/platform/health/http"
	platformobservability "github.com/shestoi/sample-app/platform/observability"
)

// NewRouter создаёт HTTP роутер sample-app.
// Все маршруты проходят через observability middleware: span на запрос,
// метрики длительности и logger с trace_id в контексте.
func NewRouter(handler *Handler, info platformhealth.Info, tel *platformobservability.Telemetry, logger *zap.Logger) chi.Router {
	router := chi.NewRouter()
	router.Use(platformobservability.HTTPMiddleware(tel, logger))

	router.Get("/", handler.GetRoot)
	router.Get("/health", platformhealth.Handler(info))

	return router
}
