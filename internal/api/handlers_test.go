package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/latewatch/internal/api"
	"github.com/phrazzld/latewatch/internal/domain"
	"github.com/phrazzld/latewatch/internal/service"
	"github.com/phrazzld/latewatch/internal/store"
	"github.com/phrazzld/latewatch/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUpdater struct {
	got []domain.NotificationConfig
	err error
}

func (f *fakeUpdater) Update(_ context.Context, cfg domain.NotificationConfig) error {
	f.got = append(f.got, cfg)
	if f.err != nil {
		return f.err
	}
	return cfg.Validate()
}

type fakeRecalculator struct {
	progress float64
	err      error
}

func (f *fakeRecalculator) RecalculateTaskProgress(context.Context, int64) (float64, error) {
	return f.progress, f.err
}

type fakeGuard struct {
	err error
}

func (g *fakeGuard) Exclusive(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	if g.err != nil {
		return g.err
	}
	return fn(ctx)
}

type fakeClassifier struct {
	report service.RunReport
	err    error
}

func (c *fakeClassifier) Classify(context.Context) (service.RunReport, error) {
	return c.report, c.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRouter(updater *fakeUpdater, progress *fakeRecalculator, guard *fakeGuard, classifier *fakeClassifier) http.Handler {
	r := chi.NewRouter()
	if updater == nil {
		updater = &fakeUpdater{}
	}
	if progress == nil {
		progress = &fakeRecalculator{}
	}
	if guard == nil {
		guard = &fakeGuard{}
	}
	if classifier == nil {
		classifier = &fakeClassifier{}
	}
	configHandler := api.NewNotificationConfigHandler(updater, quietLogger())
	progressHandler := api.NewProgressHandler(progress, quietLogger())
	classifierHandler := api.NewClassifierHandler(guard, classifier, service.ClassifierJobName, quietLogger())

	r.Post("/api/projects/{projectID}/notification-config", configHandler.UpdateConfig)
	r.Post("/api/tasks/{taskID}/progress", progressHandler.RecalculateProgress)
	r.Post("/api/classifier/runs", classifierHandler.TriggerRun)
	r.Get("/health", api.HealthHandler(quietLogger()))
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body
}

func TestUpdateNotificationConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		body       string
		updaterErr error
		wantStatus int
		wantError  string
	}{
		{
			name:       "accepted",
			path:       "/api/projects/3/notification-config",
			body:       `{"email":"lead@example.com","frequency":"daily","sendAlert":true}`,
			wantStatus: http.StatusAccepted,
		},
		{
			name:       "unknown frequency",
			path:       "/api/projects/3/notification-config",
			body:       `{"email":"lead@example.com","frequency":"monthly","sendAlert":true}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid frequency: must be one of hourly, daily, weekly",
		},
		{
			name:       "missing email with alerts on",
			path:       "/api/projects/3/notification-config",
			body:       `{"frequency":"hourly","sendAlert":true}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid email: a valid address is required when alerts are enabled",
		},
		{
			name:       "missing frequency",
			path:       "/api/projects/3/notification-config",
			body:       `{"email":"lead@example.com","sendAlert":true}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Validation error",
		},
		{
			name:       "malformed body",
			path:       "/api/projects/3/notification-config",
			body:       `{"email":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request format",
		},
		{
			name:       "unknown field",
			path:       "/api/projects/3/notification-config",
			body:       `{"frequency":"daily","mute":true}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request format",
		},
		{
			name:       "invalid project id",
			path:       "/api/projects/abc/notification-config",
			body:       `{"frequency":"daily"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid ID",
		},
		{
			name:       "broker down",
			path:       "/api/projects/3/notification-config",
			body:       `{"frequency":"daily"}`,
			updaterErr: service.ErrPublishFailed,
			wantStatus: http.StatusServiceUnavailable,
			wantError:  "Message broker unavailable, try again later",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			updater := &fakeUpdater{err: tc.updaterErr}
			rr := do(t, newRouter(updater, nil, nil, nil), http.MethodPost, tc.path, tc.body)

			assert.Equal(t, tc.wantStatus, rr.Code)
			body := decodeBody(t, rr)
			if tc.wantError != "" {
				assert.Equal(t, tc.wantError, body["error"])
				return
			}
			assert.Equal(t, float64(3), body["projectId"])
			assert.Equal(t, "daily", body["frequency"])
			require.Len(t, updater.got, 1)
			assert.Equal(t, int64(3), updater.got[0].ProjectID)
			assert.True(t, updater.got[0].SendAlert)
		})
	}
}

func TestRecalculateProgress(t *testing.T) {
	t.Parallel()

	t.Run("ok", func(t *testing.T) {
		rr := do(t, newRouter(nil, &fakeRecalculator{progress: 20}, nil, nil), http.MethodPost, "/api/tasks/4/progress", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, map[string]interface{}{"taskId": float64(4), "progress": float64(20)}, decodeBody(t, rr))
	})

	t.Run("unknown task", func(t *testing.T) {
		progress := &fakeRecalculator{err: store.ErrTaskNotFound}
		rr := do(t, newRouter(nil, progress, nil, nil), http.MethodPost, "/api/tasks/99/progress", "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Task not found", decodeBody(t, rr)["error"])
	})

	t.Run("database error is not leaked", func(t *testing.T) {
		progress := &fakeRecalculator{err: errors.New("dial tcp 10.0.0.5:5432: password=hunter22 refused")}
		rr := do(t, newRouter(nil, progress, nil, nil), http.MethodPost, "/api/tasks/4/progress", "")
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "Failed to recalculate progress", decodeBody(t, rr)["error"])
	})

	t.Run("negative id", func(t *testing.T) {
		rr := do(t, newRouter(nil, nil, nil, nil), http.MethodPost, "/api/tasks/-1/progress", "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestTriggerClassifierRun(t *testing.T) {
	t.Parallel()

	report := service.RunReport{RunID: "run-1", Evaluated: 3, LateAssignments: 1, BatchesPublished: 1}

	t.Run("returns report", func(t *testing.T) {
		rr := do(t, newRouter(nil, nil, nil, &fakeClassifier{report: report}), http.MethodPost, "/api/classifier/runs", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		var got service.RunReport
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
		assert.Equal(t, report, got)
	})

	t.Run("partial failure still returns report", func(t *testing.T) {
		partial := report
		partial.UpdateFailures = 1
		classifier := &fakeClassifier{report: partial, err: service.ErrRunIncomplete}
		rr := do(t, newRouter(nil, nil, nil, classifier), http.MethodPost, "/api/classifier/runs", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, float64(1), decodeBody(t, rr)["updateFailures"])
	})

	t.Run("run already active", func(t *testing.T) {
		guard := &fakeGuard{err: task.ErrRunInProgress}
		rr := do(t, newRouter(nil, nil, guard, nil), http.MethodPost, "/api/classifier/runs", "")
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("lock held elsewhere", func(t *testing.T) {
		guard := &fakeGuard{err: task.ErrLockNotAcquired}
		rr := do(t, newRouter(nil, nil, guard, nil), http.MethodPost, "/api/classifier/runs", "")
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("load failure", func(t *testing.T) {
		classifier := &fakeClassifier{err: errors.New("connection refused")}
		rr := do(t, newRouter(nil, nil, nil, classifier), http.MethodPost, "/api/classifier/runs", "")
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "Classifier run failed", decodeBody(t, rr)["error"])
	})
}

func TestHealth(t *testing.T) {
	t.Parallel()

	rr := do(t, newRouter(nil, nil, nil, nil), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())
}
