package api

import (
	"log/slog"
	"net/http"
)

// HealthHandler answers liveness probes with a plain "OK".
func HealthHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil && logger != nil {
			logger.Error("Failed to write health check response", slog.String("error", err.Error()))
		}
	}
}
