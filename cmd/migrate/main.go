package main

// Run database migrations:
//   go run ./cmd/migrate            # up
//   go run ./cmd/migrate status
//   go run ./cmd/migrate down

import (
	"context"
	"log"
	"os"
	"strings"

	"ifs-actionplan/internal/shared/config"
	"ifs-actionplan/internal/shared/storage/db"
	"ifs-actionplan/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()
	defer telemetry.Sync()

	command := "up"
	var args []string
	if len(os.Args) > 1 {
		command = strings.ToLower(strings.TrimSpace(os.Args[1]))
		args = os.Args[2:]
	}

	opts := db.OptionsFromEnv(db.PresetOptions(db.ProfileMigrate))
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer sqlDB.Close()

	if err := db.Migrate(ctx, sqlDB, command, args...); err != nil {
		sqlDB.Close()
		log.Fatalf("%v", err)
	}
	telemetry.Info("migrate.done", map[string]any{"command": command})
}
