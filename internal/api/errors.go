package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/latewatch/internal/api/shared"
	"github.com/phrazzld/latewatch/internal/domain"
	"github.com/phrazzld/latewatch/internal/service"
	"github.com/phrazzld/latewatch/internal/store"
	"github.com/phrazzld/latewatch/internal/task"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, task.ErrRunInProgress),
		errors.Is(err, task.ErrLockNotAcquired):
		return http.StatusConflict

	case errors.Is(err, service.ErrPublishFailed):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	switch {
	case err == nil:
		return "An unexpected error occurred"

	case errors.Is(err, domain.ErrInvalidFrequency):
		return "Invalid frequency: must be one of hourly, daily, weekly"
	case errors.Is(err, domain.ErrInvalidEmail):
		return "Invalid email: a valid address is required when alerts are enabled"
	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID"
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Validation error"

	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"
	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, task.ErrRunInProgress),
		errors.Is(err, task.ErrLockNotAcquired):
		return "A classifier run is already in progress"

	case errors.Is(err, service.ErrPublishFailed):
		return "Message broker unavailable, try again later"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the error response for err. defaultMsg replaces the
// generic message for unmapped (5xx) errors when it is not empty.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && defaultMsg != "" {
		message = defaultMsg
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
