package http

import (
	"encoding/json"
	"net/http"
)

// Info описывает сервис в ответе health check
type Info struct {
	Service string
	Version string
}

// Response тело ответа health check.
// Создаётся заново на каждый запрос, состояния не хранит.
type Response struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// Handler возвращает HTTP handler для liveness endpoint.
// Всегда отвечает 200 OK с JSON {"ok":true,"service":...,"version":...}.
func Handler(info Info) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(Response{
			OK:      true,
			Service: info.Service,
			Version: info.Version,
		})
	}
}
