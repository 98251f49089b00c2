// Package main implements the classifier process: it periodically recomputes
// task assignment statuses, publishes late work to the broker, and serves the
// small HTTP API used by the CRUD application and operators.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/phrazzld/latewatch/internal/config"
	"github.com/phrazzld/latewatch/internal/platform/logger"
	"github.com/phrazzld/latewatch/internal/platform/postgres"
	"github.com/phrazzld/latewatch/internal/redact"
)

func main() {
	migrateOnly := flag.Bool("migrate", false, "apply database migrations and exit")
	autoMigrate := flag.Bool("auto-migrate", false, "apply database migrations before starting")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *migrateOnly, *autoMigrate); err != nil {
		log.Fatalf("classifier: %v", err)
	}
}

func run(ctx context.Context, migrateOnly, autoMigrate bool) error {
	// A missing .env file is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	lg, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	lg.Info("classifier configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("schedule", cfg.Classifier.Schedule),
		slog.String("broker_url", redact.URL(cfg.Broker.URL)),
		slog.Bool("auth_enabled", cfg.Auth.JWTSecret != ""))

	db, err := postgres.Open(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}

	if migrateOnly || autoMigrate {
		if err := postgres.Migrate(ctx, db, lg); err != nil {
			_ = db.Close()
			return err
		}
		if migrateOnly {
			return db.Close()
		}
	}

	app, err := newApplication(cfg, lg, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}
