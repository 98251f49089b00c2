package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an identifier is zero or negative.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidEmail is returned when an email address is malformed.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrInvalidFrequency is returned when a notification frequency is not one
	// of hourly, daily or weekly.
	ErrInvalidFrequency = errors.New("invalid notification frequency")

	// ErrInvalidStatus is returned when an assignment status is not recognized.
	ErrInvalidStatus = errors.New("invalid assignment status")
)
