package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	platformobservability "github.com/shestoi/sample-app/platform/observability"
)

// Greeting ответ корневого endpoint
const Greeting = "Hello from sample-app with OpenTelemetry!"

// Handler содержит HTTP-обработчики sample-app
type Handler struct {
	logger *zap.Logger
}

// NewHandler создаёт новый HTTP handler
func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{logger: logger}
}

// GetRoot обрабатывает GET / - фиксированное приветствие
func (h *Handler) GetRoot(w http.ResponseWriter, r *http.Request) {
	platformobservability.LoggerFromContext(r.Context(), h.logger).Debug("Received GET / request")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(Greeting))
}
