// Package mail sends transactional email. Sends are always best-effort:
// callers log failures and move on, the primary operation never depends on
// delivery.
package mail

import (
	"github.com/wneessen/go-mail"
)

type Mailer interface {
	Send(to, subject, body string) error
}

type SMTPMailer struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

func NewSMTPMailer(host string, port int, user, pass, from string) *SMTPMailer {
	return &SMTPMailer{Host: host, Port: port, User: user, Pass: pass, From: from}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.From); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := mail.NewClient(m.Host,
		mail.WithPort(m.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.User),
		mail.WithPassword(m.Pass),
	)
	if err != nil {
		return err
	}
	return client.DialAndSend(msg)
}

// Nop is used when SMTP is not configured (dev, tests).
type Nop struct{}

func (Nop) Send(string, string, string) error { return nil }
