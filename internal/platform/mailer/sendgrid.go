package mailer

import (
	"context"
	"fmt"
	"html"

	"github.com/phrazzld/latewatch/internal/notification"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// sendGridClient is the part of *sendgrid.Client used here.
type sendGridClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridSender delivers email through the SendGrid v3 API.
type SendGridSender struct {
	client sendGridClient
	from   *mail.Email
}

// NewSendGridSender creates a sender authenticated with apiKey.
func NewSendGridSender(apiKey, fromName, fromEmail string) *SendGridSender {
	return &SendGridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromEmail),
	}
}

var _ notification.Sender = (*SendGridSender)(nil)

// Send implements notification.Sender.
func (s *SendGridSender) Send(ctx context.Context, email notification.Email) error {
	to := mail.NewEmail("", email.To)
	htmlContent := "<pre>" + html.EscapeString(email.Body) + "</pre>"
	message := mail.NewSingleEmail(s.from, email.Subject, to, email.Body, htmlContent)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("%w: sendgrid: %w", notification.ErrDispatch, err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("%w: sendgrid API error: status %d, body: %s",
			notification.ErrDispatch, response.StatusCode, response.Body)
	}
	return nil
}
