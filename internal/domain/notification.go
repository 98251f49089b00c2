package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Frequency controls how often a project may receive a delay notification.
type Frequency string

// Supported notification frequencies.
const (
	FrequencyHourly Frequency = "hourly"
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// DefaultWindow is the throttle window applied to unrecognized frequencies.
const DefaultWindow = 24 * time.Hour

// Known reports whether f is one of the supported frequencies.
func (f Frequency) Known() bool {
	switch f {
	case FrequencyHourly, FrequencyDaily, FrequencyWeekly:
		return true
	default:
		return false
	}
}

// Window returns the minimum interval between two notifications for the
// same project. Unknown frequencies fall back to DefaultWindow.
func (f Frequency) Window() time.Duration {
	switch f {
	case FrequencyHourly:
		return time.Hour
	case FrequencyDaily:
		return 24 * time.Hour
	case FrequencyWeekly:
		return 7 * 24 * time.Hour
	default:
		return DefaultWindow
	}
}

// NotificationConfig holds a project's alerting preferences. A config is
// always replaced as a whole; there is no partial update.
type NotificationConfig struct {
	ProjectID int64     `json:"projectId"`
	Email     string    `json:"email"`
	Frequency Frequency `json:"frequency"`
	SendAlert bool      `json:"sendAlert"`
}

// Validate applies the strict rules used when a config change is accepted
// from a user. Consumers of already-published configs are more lenient.
func (c NotificationConfig) Validate() error {
	if c.ProjectID <= 0 {
		return fmt.Errorf("%w: %w: project id %d", ErrValidation, ErrInvalidID, c.ProjectID)
	}
	if !c.Frequency.Known() {
		return fmt.Errorf("%w: %w: %q", ErrValidation, ErrInvalidFrequency, c.Frequency)
	}
	email := strings.TrimSpace(c.Email)
	if email == "" && !c.SendAlert {
		return nil
	}
	if err := validate.Var(email, "required,email"); err != nil {
		return fmt.Errorf("%w: %w: %q", ErrValidation, ErrInvalidEmail, c.Email)
	}
	return nil
}
