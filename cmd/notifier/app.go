package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/latewatch/internal/api"
	"github.com/phrazzld/latewatch/internal/config"
	"github.com/phrazzld/latewatch/internal/events"
	"github.com/phrazzld/latewatch/internal/notification"
	"github.com/phrazzld/latewatch/internal/platform/mailer"
	"github.com/phrazzld/latewatch/internal/platform/metrics"
	"github.com/phrazzld/latewatch/internal/platform/rabbitmq"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// application holds the notifier's dependencies.
type application struct {
	config *config.Config
	logger *slog.Logger

	registry *prometheus.Registry
	metrics  *metrics.Metrics

	engine    *notification.Engine
	consumers []*rabbitmq.Consumer
}

func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config:   cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}
	app.metrics = metrics.MustNewMetrics(app.registry)

	sender, err := mailer.New(cfg.Email, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create email sender: %w", err)
	}

	app.engine = notification.NewEngine(
		notification.NewMemoryConfigStore(),
		notification.NewMemoryThrottleStore(),
		notification.NewDispatcher(sender),
		logger,
		notification.WithOutcomeObserver(app.metrics),
	)

	policy := rabbitmq.RedeliveryPolicy{
		MaxAttempts:      cfg.Broker.MaxAttempts,
		DeadLetterSuffix: cfg.Broker.DeadLetterSuffix,
	}
	handlers := map[string]rabbitmq.Handler{
		events.QueueConfigUpdates: rabbitmq.HandlerFunc(app.engine.HandleConfigUpdateMessage),
		events.QueueLateTasks:     rabbitmq.HandlerFunc(app.engine.HandleLateTasksMessage),
	}
	// Config updates are consumed first so a restarted notifier sees
	// pending configs before the late-tasks backlog.
	for _, queue := range []string{events.QueueConfigUpdates, events.QueueLateTasks} {
		app.consumers = append(app.consumers, rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
			URL:                   cfg.Broker.URL,
			Queue:                 queue,
			Prefetch:              cfg.Broker.Prefetch,
			Policy:                policy,
			ReconnectInitialDelay: cfg.Broker.ReconnectInitialDelay,
			ReconnectMaxDelay:     cfg.Broker.ReconnectMaxDelay,
			PublishTimeout:        cfg.Broker.PublishTimeout,
		}, handlers[queue], rabbitmq.WithLogger(logger), rabbitmq.WithObserver(app.metrics)))
	}

	return app, nil
}

// setupRouter serves liveness, readiness and metrics.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", api.HealthHandler(app.logger))
	r.Get("/ready", app.ready)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(app.registry))
	return r
}

// ready answers 200 only while every consumer holds a broker session.
func (app *application) ready(w http.ResponseWriter, _ *http.Request) {
	for _, c := range app.consumers {
		if c.State() != rabbitmq.StateConnected {
			http.Error(w, "broker disconnected", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// Run consumes both queues and serves HTTP until ctx is canceled. The first
// component to fail stops the others.
func (app *application) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, c := range app.consumers {
		c := c
		g.Go(func() error { return c.Run(ctx) })
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		app.logger.Info("Starting server", slog.Int("port", app.config.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	app.logger.Info("Application shutdown completed")
	return err
}
