// Package mailer sends outbound email over SMTP. Sends are synchronous with
// a bounded timeout; there is no retry queue, a failed send is terminal for
// that attempt.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	mail "github.com/wneessen/go-mail"

	"github.com/seedscout/outreach/internal/config"
)

// Message is one outbound email
type Message struct {
	To        string
	Cc        []string
	Subject   string
	Body      string
	MessageID string // optional; transport Message-ID for reply correlation
}

// SMTP sends messages through a configured SMTP relay
type SMTP struct {
	host     string
	port     int
	username string
	password string
	fromAddr string
	fromName string
	useTLS   bool
	timeout  time.Duration
	logger   *slog.Logger
}

// New creates an SMTP mailer from config
func New(cfg *config.Config, logger *slog.Logger) *SMTP {
	return &SMTP{
		host:     cfg.MailHost,
		port:     cfg.MailPort,
		username: cfg.MailUsername,
		password: cfg.MailPassword,
		fromAddr: cfg.MailFromAddress,
		fromName: cfg.MailFromName,
		useTLS:   cfg.UseTLS(),
		timeout:  cfg.MailSendTimeout,
		logger:   logger.With("component", "mailer"),
	}
}

// Send delivers one message, dialing a fresh connection per send
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.FromFormat(s.fromName, s.fromAddr); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	if len(msg.Cc) > 0 {
		if err := m.Cc(msg.Cc...); err != nil {
			return fmt.Errorf("invalid cc recipients: %w", err)
		}
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	if msg.MessageID != "" {
		m.SetMessageIDWithValue(msg.MessageID)
	}

	opts := []mail.Option{
		mail.WithPort(s.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.username),
		mail.WithPassword(s.password),
		mail.WithTimeout(s.timeout),
	}
	switch {
	case s.port == 465:
		opts = append(opts, mail.WithSSL())
	case s.useTLS:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	client, err := mail.NewClient(s.host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	s.logger.Debug("sending email", "to", msg.To, "subject", msg.Subject)
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}

	s.logger.Info("email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}
