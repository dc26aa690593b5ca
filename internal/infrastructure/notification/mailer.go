// Package notification delivers best-effort email notices to bidders and
// sellers. Delivery failures are reported to the caller but never affect the
// auction state that triggered them.
package notification

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/lrazine99/purple-dog-sub000/internal/domain/values"
	"github.com/lrazine99/purple-dog-sub000/internal/infrastructure/config"
)

// SMTPMailer sends plain-text mail through a single SMTP relay
type SMTPMailer struct {
	addr   string
	from   string
	auth   smtp.Auth
	logger *slog.Logger
}

// NewSMTPMailer creates a mailer from SMTP configuration
func NewSMTPMailer(cfg config.SMTPConfig, logger *slog.Logger) *SMTPMailer {
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	}
	return &SMTPMailer{
		addr:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		from:   cfg.From,
		auth:   auth,
		logger: logger,
	}
}

// Notify sends one message. The context only bounds this call; the SMTP
// exchange itself is synchronous.
func (m *SMTPMailer) Notify(ctx context.Context, email, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	to, err := values.NewEmail(email)
	if err != nil {
		return fmt.Errorf("refusing to send: %w", err)
	}

	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to.String(),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to.String()}, []byte(msg)); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}

	m.logger.Debug("notification sent", "to", to.String(), "subject", subject)
	return nil
}

// NoopNotifier drops every notification. Used when SMTP is disabled.
type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, string, string, string) error { return nil }
