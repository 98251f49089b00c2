package mailer

import (
	"context"
	"log/slog"

	"github.com/phrazzld/latewatch/internal/notification"
)

// LogSender writes emails to the log instead of delivering them.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger.With(slog.String("component", "log_mailer"))}
}

var _ notification.Sender = (*LogSender)(nil)

// Send implements notification.Sender. It never fails.
func (s *LogSender) Send(ctx context.Context, email notification.Email) error {
	s.logger.InfoContext(ctx, "email not delivered (log provider)",
		slog.String("to", email.To),
		slog.String("subject", email.Subject),
		slog.String("body", email.Body))
	return nil
}
