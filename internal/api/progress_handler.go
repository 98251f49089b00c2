package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/phrazzld/latewatch/internal/api/shared"
)

// ProgressRecalculator recomputes a task's weighted progress.
type ProgressRecalculator interface {
	RecalculateTaskProgress(ctx context.Context, taskID int64) (float64, error)
}

// ProgressHandler exposes progress aggregation to the CRUD application,
// which calls it after assignments change.
type ProgressHandler struct {
	progress ProgressRecalculator
	logger   *slog.Logger
}

// NewProgressHandler creates a ProgressHandler.
func NewProgressHandler(progress ProgressRecalculator, logger *slog.Logger) *ProgressHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressHandler{
		progress: progress,
		logger:   logger.With(slog.String("component", "progress_handler")),
	}
}

// RecalculateProgress handles POST /api/tasks/{taskID}/progress.
func (h *ProgressHandler) RecalculateProgress(w http.ResponseWriter, r *http.Request) {
	taskID, err := getPathID(r, "taskID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	progress, err := h.progress.RecalculateTaskProgress(r.Context(), taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to recalculate progress")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskProgressResponse{TaskID: taskID, Progress: progress})
}
