package main

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/latewatch/internal/api"
	apiMiddleware "github.com/phrazzld/latewatch/internal/api/middleware"
	"github.com/phrazzld/latewatch/internal/platform/metrics"
)

// setupRouter creates the classifier's router with all routes and middleware.
func (app *application) setupRouter() (http.Handler, error) {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	configHandler := api.NewNotificationConfigHandler(app.notifications, app.logger)
	progressHandler := api.NewProgressHandler(app.progress, app.logger)
	classifierHandler := api.NewClassifierHandler(app.scheduler, app.classifier, app.classifier.Name(), app.logger)

	var auth *apiMiddleware.AuthMiddleware
	if secret := app.config.Auth.JWTSecret; secret != "" {
		var err error
		auth, err = apiMiddleware.NewAuthMiddleware(secret)
		if err != nil {
			return nil, fmt.Errorf("failed to create auth middleware: %w", err)
		}
	}

	r.Route("/api", func(r chi.Router) {
		if auth != nil {
			r.Use(auth.Authenticate)
		}
		r.Post("/projects/{projectID}/notification-config", configHandler.UpdateConfig)
		r.Post("/tasks/{taskID}/progress", progressHandler.RecalculateProgress)
		r.Post("/classifier/runs", classifierHandler.TriggerRun)
	})

	r.Get("/health", api.HealthHandler(app.logger))
	r.Method(http.MethodGet, "/metrics", metrics.Handler(app.registry))

	return r, nil
}
