// Package mailer provides the email delivery providers used by the notifier:
// SendGrid's HTTP API, plain SMTP with STARTTLS, and a log-only sender for
// local runs. All of them implement notification.Sender and wrap failures in
// notification.ErrDispatch.
package mailer
