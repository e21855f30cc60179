// Package mail delivers password reset links.
package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/oops"
	"gopkg.in/gomail.v2"
)

const resetSubject = "Your password reset token (valid for 10 min)"

// Config holds the SMTP settings. An empty Host selects the log mailer.
type Config struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	from string
	send func(m ...*gomail.Message) error
}

// NewSMTPMailer creates a mailer that dials the relay for every message.
func NewSMTPMailer(cfg Config) *SMTPMailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &SMTPMailer{from: cfg.From, send: d.DialAndSend}
}

// SendPasswordReset mails the reset link to the user.
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, name, resetURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.send(newResetMessage(m.from, to, name, resetURL)); err != nil {
		return oops.Code("smtp_send_failed").With("to", to).Wrap(err)
	}
	return nil
}

func newResetMessage(from, to, name, resetURL string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetAddressHeader("To", to, name)
	msg.SetHeader("Subject", resetSubject)
	msg.SetBody("text/plain", resetBody(resetURL))
	return msg
}

func resetBody(resetURL string) string {
	return fmt.Sprintf("Forgot your password? Submit a PATCH request with your new password and passwordConfirm to: %s.\n"+
		"If you didn't forget your password, please ignore this email!", resetURL)
}

// LogMailer writes reset links to the log instead of sending them.
// Used in development when no SMTP relay is configured.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to, name, resetURL string) error {
	m.logger.InfoContext(ctx, "password reset mail",
		"to", to,
		"name", name,
		"subject", resetSubject,
		"reset_url", resetURL,
	)
	return nil
}
