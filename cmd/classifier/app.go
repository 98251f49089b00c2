package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/latewatch/internal/config"
	"github.com/phrazzld/latewatch/internal/domain/delay"
	"github.com/phrazzld/latewatch/internal/platform/metrics"
	"github.com/phrazzld/latewatch/internal/platform/postgres"
	"github.com/phrazzld/latewatch/internal/platform/rabbitmq"
	"github.com/phrazzld/latewatch/internal/service"
	"github.com/phrazzld/latewatch/internal/task"
	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 15 * time.Second

// application holds all the shared dependencies of the classifier process
// and ensures proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	registry *prometheus.Registry
	metrics  *metrics.Metrics

	broker *rabbitmq.Client

	classifier    *service.DelayClassifier
	progress      *service.ProgressService
	notifications *service.NotificationConfigService

	scheduler *task.Scheduler
}

// newApplication wires stores, broker client, services and the scheduler.
// Nothing connects to the broker until the first publish.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config:   cfg,
		logger:   logger,
		db:       db,
		registry: prometheus.NewRegistry(),
	}
	app.metrics = metrics.MustNewMetrics(app.registry)

	app.broker = rabbitmq.NewClient(rabbitmq.ClientConfig{
		URL:              cfg.Broker.URL,
		DeadLetterSuffix: cfg.Broker.DeadLetterSuffix,
		PublishTimeout:   cfg.Broker.PublishTimeout,
	}, rabbitmq.WithLogger(logger), rabbitmq.WithObserver(app.metrics))

	params, err := delay.NewParams(delay.ParamsConfig{LagTolerance: cfg.Classifier.LagTolerance})
	if err != nil {
		return nil, fmt.Errorf("invalid classifier parameters: %w", err)
	}

	assignments := postgres.NewPostgresAssignmentStore(db, logger)
	tasks := postgres.NewPostgresTaskStore(db, logger)

	app.classifier, err = service.NewDelayClassifier(assignments, app.broker, params, logger,
		service.WithClassifierObserver(app.metrics))
	if err != nil {
		return nil, fmt.Errorf("failed to create delay classifier: %w", err)
	}

	app.progress, err = service.NewProgressService(tasks, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create progress service: %w", err)
	}

	app.notifications, err = service.NewNotificationConfigService(app.broker, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification config service: %w", err)
	}

	app.scheduler = task.NewScheduler(
		task.SchedulerConfig{RunTimeout: cfg.Classifier.RunTimeout},
		logger,
		task.WithLocker(postgres.NewAdvisoryLocker(db, cfg.Classifier.LockKey, logger)),
		task.WithRunObserver(app.metrics),
	)
	if err := app.scheduler.Register(cfg.Classifier.Schedule, app.classifier); err != nil {
		return nil, fmt.Errorf("failed to schedule classifier: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the scheduler and the HTTP server and blocks until ctx is
// canceled or the server fails.
func (app *application) Run(ctx context.Context) error {
	app.scheduler.Start()

	if app.config.Classifier.RunOnStart {
		go func() {
			err := app.scheduler.RunNow(ctx, app.classifier.Name())
			if err != nil && !errors.Is(err, task.ErrRunInProgress) && !errors.Is(err, task.ErrLockNotAcquired) {
				app.logger.Error("startup classifier run failed", slog.String("error", err.Error()))
			}
		}()
	}

	router, err := app.setupRouter()
	if err != nil {
		app.cleanup()
		return err
	}

	err = app.startHTTPServer(ctx, router)
	app.cleanup()
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.scheduler.Stop(ctx); err != nil {
		app.logger.Error("Error stopping scheduler", slog.String("error", err.Error()))
	}
	if err := app.broker.Close(); err != nil {
		app.logger.Error("Error closing broker connection", slog.String("error", err.Error()))
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("Error closing database connection", slog.String("error", err.Error()))
	}

	app.logger.Info("Application shutdown completed")
}
