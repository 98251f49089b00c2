package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/phrazzld/latewatch/internal/api/shared"
	"github.com/phrazzld/latewatch/internal/platform/logger"
	"github.com/phrazzld/latewatch/internal/service"
)

// RunGuard runs fn so that it never overlaps another run of the named job.
type RunGuard interface {
	Exclusive(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

// Classifier performs one delay classification pass.
type Classifier interface {
	Classify(ctx context.Context) (service.RunReport, error)
}

// ClassifierHandler lets operators trigger a classifier run on demand.
type ClassifierHandler struct {
	guard      RunGuard
	classifier Classifier
	jobName    string
	logger     *slog.Logger
}

// NewClassifierHandler creates a ClassifierHandler. jobName is the name the
// classifier is registered under in the scheduler.
func NewClassifierHandler(guard RunGuard, classifier Classifier, jobName string, logger *slog.Logger) *ClassifierHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClassifierHandler{
		guard:      guard,
		classifier: classifier,
		jobName:    jobName,
		logger:     logger.With(slog.String("component", "classifier_handler")),
	}
}

// TriggerRun handles POST /api/classifier/runs. A run that completed with
// partial failures still answers 200 with its report; the counts tell the
// caller what went wrong.
func (h *ClassifierHandler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var report service.RunReport
	ran := false
	err := h.guard.Exclusive(r.Context(), h.jobName, func(ctx context.Context) error {
		var runErr error
		report, runErr = h.classifier.Classify(ctx)
		ran = true
		return runErr
	})

	if ran && (err == nil || errors.Is(err, service.ErrRunIncomplete)) {
		if err != nil {
			log.Warn("manual classifier run completed with failures", slog.String("run_id", report.RunID))
		}
		shared.RespondWithJSON(w, r, http.StatusOK, report)
		return
	}

	HandleAPIError(w, r, err, "Classifier run failed")
}
