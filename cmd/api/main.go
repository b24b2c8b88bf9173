package main

import (
	"log"

	"ifs-actionplan/internal/bootstrap"
	"ifs-actionplan/internal/shared/config"
	"ifs-actionplan/internal/shared/server"
	"ifs-actionplan/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer telemetry.Sync()

	addr := server.Addr(cfg.Port)
	telemetry.Info("server.start", map[string]any{"addr": addr})

	if err := app.Router.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
