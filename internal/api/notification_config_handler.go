package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/phrazzld/latewatch/internal/api/shared"
	"github.com/phrazzld/latewatch/internal/domain"
	"github.com/phrazzld/latewatch/internal/platform/logger"
)

// NotificationConfigUpdater accepts a project's complete notification config.
type NotificationConfigUpdater interface {
	Update(ctx context.Context, cfg domain.NotificationConfig) error
}

// NotificationConfigHandler handles notification preference changes.
type NotificationConfigHandler struct {
	updater NotificationConfigUpdater
	logger  *slog.Logger
}

// NewNotificationConfigHandler creates a NotificationConfigHandler.
func NewNotificationConfigHandler(updater NotificationConfigUpdater, logger *slog.Logger) *NotificationConfigHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationConfigHandler{
		updater: updater,
		logger:  logger.With(slog.String("component", "notification_config_handler")),
	}
}

// UpdateConfig handles POST /api/projects/{projectID}/notification-config.
// The change is applied asynchronously by the notifier, hence 202.
func (h *NotificationConfigHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	projectID, err := getPathID(r, "projectID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req NotificationConfigRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Validation error", err)
		return
	}

	cfg := domain.NotificationConfig{
		ProjectID: projectID,
		Email:     req.Email,
		Frequency: domain.Frequency(req.Frequency),
		SendAlert: req.SendAlert,
	}
	if err := h.updater.Update(r.Context(), cfg); err != nil {
		HandleAPIError(w, r, err, "Failed to update notification config")
		return
	}

	log.Debug("notification config accepted", slog.Int64("project_id", projectID))
	shared.RespondWithJSON(w, r, http.StatusAccepted, NotificationConfigResponse{
		ProjectID: cfg.ProjectID,
		Email:     cfg.Email,
		Frequency: string(cfg.Frequency),
		SendAlert: cfg.SendAlert,
	})
}
