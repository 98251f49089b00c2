package config

import (
	"errors"
	"time"
)

// Config holds all application configuration for both processes.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Broker     BrokerConfig     `mapstructure:"broker" validate:"required"`
	Classifier ClassifierConfig `mapstructure:"classifier" validate:"required"`
	Email      EmailConfig      `mapstructure:"email" validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth"`
}

// ServerConfig contains the HTTP listener and logging settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains the relational store settings. Only the
// classifier process talks to the database.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// BrokerConfig contains the message broker connection and redelivery settings.
type BrokerConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`

	// Prefetch bounds the number of unacknowledged deliveries per consumer.
	Prefetch int `mapstructure:"prefetch" validate:"gte=1"`

	// MaxAttempts is the number of times a message is handled before it is
	// moved to the dead-letter queue.
	MaxAttempts int `mapstructure:"max_attempts" validate:"gte=1"`

	// DeadLetterSuffix is appended to a queue name to form its dead-letter queue.
	DeadLetterSuffix string `mapstructure:"dead_letter_suffix" validate:"required"`

	ReconnectInitialDelay time.Duration `mapstructure:"reconnect_initial_delay" validate:"gt=0"`
	ReconnectMaxDelay     time.Duration `mapstructure:"reconnect_max_delay" validate:"gtefield=ReconnectInitialDelay"`
	PublishTimeout        time.Duration `mapstructure:"publish_timeout" validate:"gt=0"`
}

// ClassifierConfig contains the delay classifier schedule and thresholds.
type ClassifierConfig struct {
	// Schedule is a cron spec, e.g. "@weekly", "@every 1h" or "0 6 * * 1".
	Schedule     string        `mapstructure:"schedule" validate:"required"`
	RunOnStart   bool          `mapstructure:"run_on_start"`
	RunTimeout   time.Duration `mapstructure:"run_timeout" validate:"gt=0"`
	LagTolerance float64       `mapstructure:"lag_tolerance" validate:"gte=0,lte=100"`

	// LockKey identifies the postgres advisory lock that keeps runs
	// exclusive across classifier instances.
	LockKey int64 `mapstructure:"lock_key"`
}

// EmailConfig selects and configures the delivery provider.
type EmailConfig struct {
	Provider       string `mapstructure:"provider" validate:"required,oneof=sendgrid smtp log"`
	From           string `mapstructure:"from" validate:"omitempty,email"`
	FromName       string `mapstructure:"from_name"`
	SendGridAPIKey string `mapstructure:"sendgrid_api_key" validate:"required_if=Provider sendgrid"`
	SMTPHost       string `mapstructure:"smtp_host" validate:"required_if=Provider smtp"`
	SMTPPort       int    `mapstructure:"smtp_port" validate:"gt=0,lt=65536"`
	SMTPUsername   string `mapstructure:"smtp_username"`
	SMTPPassword   string `mapstructure:"smtp_password"`
}

// AuthConfig contains the optional API authentication settings.
type AuthConfig struct {
	// JWTSecret enables bearer-token checks on /api routes when non-empty.
	JWTSecret string `mapstructure:"jwt_secret" validate:"omitempty,min=32"`
}

// ErrDatabaseRequired is returned by RequireDatabase when no database URL is configured.
var ErrDatabaseRequired = errors.New("database url is required")

// RequireDatabase reports an error when the database URL is missing.
// The classifier calls it after Load; the notifier does not need a database.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return ErrDatabaseRequired
	}
	return nil
}
