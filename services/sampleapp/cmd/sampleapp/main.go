// sample-app: HTTP сервис с двумя маршрутами (GET /, GET /health),
// который экспортирует traces и metrics в OTLP/HTTP collector.
package main

import (
	"log"

	"github.com/shestoi/sample-app/services/sampleapp/internal/app"
	"github.com/shestoi/sample-app/services/sampleapp/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Build поднимает telemetry pipeline до того, как сервер начнёт принимать запросы
	application, err := app.Build(cfg)
	if err != nil {
		log.Fatalf("Failed to build app: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("Service error: %v", err)
	}
}
