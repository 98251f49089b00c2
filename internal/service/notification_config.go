package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/latewatch/internal/domain"
	"github.com/phrazzld/latewatch/internal/events"
	"github.com/phrazzld/latewatch/internal/platform/logger"
)

// NotificationConfigService accepts notification preference changes and
// forwards them to the notifier. The classifier keeps no copy; the notifier's
// cache is the only consumer.
type NotificationConfigService struct {
	publisher events.Publisher
	logger    *slog.Logger
}

// NewNotificationConfigService creates a NotificationConfigService.
func NewNotificationConfigService(publisher events.Publisher, logger *slog.Logger) (*NotificationConfigService, error) {
	if publisher == nil {
		return nil, fmt.Errorf("publisher cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationConfigService{
		publisher: publisher,
		logger:    logger.With(slog.String("component", "notification_config_service")),
	}, nil
}

// Update validates cfg and publishes it as the project's complete config.
// Validation failures wrap domain.ErrValidation; broker failures wrap
// ErrPublishFailed.
func (s *NotificationConfigService) Update(ctx context.Context, cfg domain.NotificationConfig) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := s.publisher.Publish(ctx, events.QueueConfigUpdates, events.NewConfigUpdateEvent(cfg)); err != nil {
		log.Error("failed to publish notification config",
			slog.Int64("project_id", cfg.ProjectID),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	log.Info("notification config published",
		slog.Int64("project_id", cfg.ProjectID),
		slog.String("frequency", string(cfg.Frequency)),
		slog.Bool("send_alert", cfg.SendAlert))
	return nil
}
