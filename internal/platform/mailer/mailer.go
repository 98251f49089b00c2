package mailer

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/latewatch/internal/config"
	"github.com/phrazzld/latewatch/internal/notification"
)

// Provider names accepted in email.provider.
const (
	ProviderSendGrid = "sendgrid"
	ProviderSMTP     = "smtp"
	ProviderLog      = "log"
)

// New returns the Sender selected by cfg.Provider.
func New(cfg config.EmailConfig, logger *slog.Logger) (notification.Sender, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Provider {
	case ProviderSendGrid:
		return NewSendGridSender(cfg.SendGridAPIKey, cfg.FromName, cfg.From), nil
	case ProviderSMTP:
		return NewSMTPSender(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.From,
			FromName: cfg.FromName,
		}), nil
	case ProviderLog, "":
		return NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}
