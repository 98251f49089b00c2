package mailer

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/latewatch/internal/notification"
)

// SMTPConfig configures an SMTPSender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender delivers email through an SMTP relay. smtp.SendMail upgrades
// to TLS with STARTTLS when the server offers it.
type SMTPSender struct {
	cfg      SMTPConfig
	sendMail sendMailFunc
	now      func() time.Time
}

// NewSMTPSender creates an SMTPSender.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg, sendMail: smtp.SendMail, now: time.Now}
}

var _ notification.Sender = (*SMTPSender)(nil)

// Send implements notification.Sender. smtp.SendMail has no context support,
// so ctx is only checked before the call.
func (s *SMTPSender) Send(ctx context.Context, email notification.Email) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", notification.ErrDispatch, err)
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	msg := s.buildMessage(email)
	if err := s.sendMail(addr, auth, s.cfg.From, []string{email.To}, msg); err != nil {
		return fmt.Errorf("%w: smtp %s: %w", notification.ErrDispatch, addr, err)
	}
	return nil
}

func (s *SMTPSender) buildMessage(email notification.Email) []byte {
	from := (&mail.Address{Name: s.cfg.FromName, Address: s.cfg.From}).String()
	domain := s.cfg.Host
	if at := strings.LastIndex(s.cfg.From, "@"); at >= 0 {
		domain = s.cfg.From[at+1:]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", email.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", email.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", s.now().UTC().Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Message-ID: <%s@%s>\r\n", uuid.NewString(), domain)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(email.Body, "\n", "\r\n"))
	return []byte(b.String())
}
