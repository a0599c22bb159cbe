package utils

import (
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	"github.com/mikesol/inboxpilot/config"
)

// EmailSender is the transport boundary. The send worker and the test-send
// endpoint depend on this, not on SMTP directly.
type EmailSender interface {
	Send(to, subject, body string) error
}

// Mailer sends plain-text mail over SMTP. In development the default config
// points at MailHog.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewMailer() *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(
			config.AppConfig.SMTPHost,
			config.AppConfig.SMTPPort,
			config.AppConfig.SMTPUsername,
			config.AppConfig.SMTPPassword,
		),
		from: config.AppConfig.FromEmail,
	}
}

func (m *Mailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetHeader("Message-Id", fmt.Sprintf("<%s@inboxpilot>", uuid.NewString()))
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return &TransportError{
			Message: fmt.Sprintf("failed to send email to %s", to),
			Err:     err,
		}
	}
	return nil
}
