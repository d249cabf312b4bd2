// internal/app/mailer/smtp.go
package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

// SMTPConfig holds SMTP server settings.
type SMTPConfig struct {
	// Host is the SMTP server hostname (e.g., "smtp.gmail.com").
	Host string

	// Port is the SMTP server port (587 for STARTTLS).
	Port int

	Username string
	Password string

	// InsecureSkipVerify disables server certificate verification.
	// Only for development relays with self-signed certificates.
	InsecureSkipVerify bool

	// Timeout for each dial and SMTP command (default: 30 seconds).
	Timeout time.Duration
}

// SMTPTransport sends mail over SMTP with STARTTLS and PLAIN auth.
// Each call opens its own connection, so it is safe for concurrent use.
type SMTPTransport struct {
	cfg SMTPConfig
}

// NewSMTP returns an SMTP transport. Host is required.
func NewSMTP(cfg SMTPConfig) (*SMTPTransport, error) {
	if cfg.Host == "" {
		return nil, errors.New("mailer: smtp host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SMTPTransport{cfg: cfg}, nil
}

func (t *SMTPTransport) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(t.cfg.Port),
		mail.WithTimeout(t.cfg.Timeout),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
	}
	if t.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(t.cfg.Username),
			mail.WithPassword(t.cfg.Password),
		)
	}
	if t.cfg.InsecureSkipVerify {
		opts = append(opts, mail.WithTLSConfig(&tls.Config{
			ServerName:         t.cfg.Host,
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: true, //nolint:gosec // opt-in via smtp_insecure_skip_verify
		}))
	}

	c, err := mail.NewClient(t.cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mailer: failed to create smtp client: %w", err)
	}
	return c, nil
}

// Verify dials the server, negotiates TLS, authenticates and disconnects.
func (t *SMTPTransport) Verify(ctx context.Context) error {
	c, err := t.client()
	if err != nil {
		return err
	}
	if err := c.DialWithContext(ctx); err != nil {
		return fmt.Errorf("mailer: smtp verify %s:%d: %w", t.cfg.Host, t.cfg.Port, err)
	}
	if err := c.Close(); err != nil {
		return fmt.Errorf("mailer: smtp close: %w", err)
	}
	return nil
}

// Send delivers msg on a fresh connection.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	m, err := buildMsg(msg)
	if err != nil {
		return err
	}
	c, err := t.client()
	if err != nil {
		return err
	}
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("mailer: smtp send to %s: %w", msg.To, err)
	}
	return nil
}

func buildMsg(msg Message) (*mail.Msg, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	m := mail.NewMsg()
	if msg.FromName != "" {
		if err := m.FromFormat(msg.FromName, msg.From); err != nil {
			return nil, fmt.Errorf("mailer: invalid from address: %w", err)
		}
	} else if err := m.From(msg.From); err != nil {
		return nil, fmt.Errorf("mailer: invalid from address: %w", err)
	}

	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("mailer: invalid to address: %w", err)
	}
	if msg.ReplyTo != "" {
		if err := m.ReplyTo(msg.ReplyTo); err != nil {
			return nil, fmt.Errorf("mailer: invalid reply-to address: %w", err)
		}
	}

	m.Subject(msg.Subject)
	if msg.SubmissionID != "" {
		m.SetGenHeader(mail.Header(SubmissionIDHeader), msg.SubmissionID)
	}

	switch {
	case msg.TextBody != "" && msg.HTMLBody != "":
		m.SetBodyString(mail.TypeTextPlain, msg.TextBody)
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTMLBody)
	case msg.HTMLBody != "":
		m.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)
	default:
		m.SetBodyString(mail.TypeTextPlain, msg.TextBody)
	}

	return m, nil
}
