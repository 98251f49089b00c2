package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// Callers check for them with errors.Is(); the API layer maps them to HTTP status codes.
var (
	// ErrRunIncomplete indicates a classifier run finished but some status
	// updates or publishes failed. The run report lists the counts; the joined
	// errors carry the details.
	ErrRunIncomplete = errors.New("classifier run completed with failures")

	// ErrPublishFailed indicates an event could not be handed to the broker.
	// API layer should map this to HTTP 503 Service Unavailable.
	ErrPublishFailed = errors.New("failed to publish event")
)
