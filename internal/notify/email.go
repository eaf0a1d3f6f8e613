package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomail "gopkg.in/mail.v2"
)

// EmailConfig holds SMTP configuration for sending emails.
type EmailConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
	To   []string
}

func (c EmailConfig) Enabled() bool { return c.Host != "" && c.From != "" && len(c.To) > 0 }

// sender is the part of the SMTP dialer Email uses.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Email delivers messages via SMTP.
type Email struct {
	cfg    EmailConfig
	dialer sender
}

func NewEmail(cfg EmailConfig) *Email {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass)
	d.Timeout = 10 * time.Second
	return &Email{cfg: cfg, dialer: d}
}

func (e *Email) message(msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", e.cfg.From)
	m.SetHeader("To", e.cfg.To...)
	m.SetHeader("Subject", msg.Subject)

	switch {
	case msg.HTML != "" && msg.Text != "":
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	case msg.HTML != "":
		m.SetBody("text/html", msg.HTML)
	default:
		m.SetBody("text/plain", msg.Text)
	}
	return m
}

// Send delivers an email with HTML body and plain text fallback.
func (e *Email) Send(ctx context.Context, msg Message) error {
	if !e.cfg.Enabled() {
		return errors.New("email disabled")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.dialer.DialAndSend(e.message(msg)); err != nil {
		return fmt.Errorf("smtp send to %v: %w", e.cfg.To, err)
	}
	return nil
}
