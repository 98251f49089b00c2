package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// LATEWATCH_BROKER_URL for broker.url.
const EnvPrefix = "LATEWATCH"

// configDirEnv names an extra directory searched for config.yaml.
const configDirEnv = "LATEWATCH_CONFIG_DIR"

// Load configuration from environment variables and optionally a config file.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir := os.Getenv(configDirEnv); dir != "" {
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without defaults must be bound explicitly for Unmarshal to see them.
	for _, key := range []string{
		"database.url",
		"broker.url",
		"email.from",
		"email.sendgrid_api_key",
		"email.smtp_host",
		"email.smtp_username",
		"email.smtp_password",
		"auth.jwt_secret",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("broker.prefetch", 1)
	v.SetDefault("broker.max_attempts", 5)
	v.SetDefault("broker.dead_letter_suffix", ".dead-letter")
	v.SetDefault("broker.reconnect_initial_delay", "5s")
	v.SetDefault("broker.reconnect_max_delay", "1m")
	v.SetDefault("broker.publish_timeout", "5s")

	v.SetDefault("classifier.schedule", "@weekly")
	v.SetDefault("classifier.run_on_start", false)
	v.SetDefault("classifier.run_timeout", "10m")
	v.SetDefault("classifier.lag_tolerance", 20)
	v.SetDefault("classifier.lock_key", 727274)

	v.SetDefault("email.provider", "log")
	v.SetDefault("email.from_name", "Task Tracker")
	v.SetDefault("email.smtp_port", 587)
}
