// internal/app/mailer/mailer.go
// Package mailer sends the contact-form emails through a pluggable
// transport: SMTP via go-mail, or Amazon SES.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Message is one outgoing email.
type Message struct {
	FromName string // display name, e.g. "SKMS Website Contact"
	From     string // sender address
	To       string
	ReplyTo  string // optional
	Subject  string
	TextBody string
	HTMLBody string

	// SubmissionID correlates the mail with server logs. It travels as the
	// X-Submission-ID header (SMTP) or a message tag (SES).
	SubmissionID string
}

// Transport delivers messages. Implementations must be safe for
// concurrent Send calls.
type Transport interface {
	// Verify checks that the service is reachable and accepts our
	// credentials.
	Verify(ctx context.Context) error

	// Send delivers a single message.
	Send(ctx context.Context, msg Message) error
}

// Transport names accepted by the mail_transport setting.
const (
	TransportSMTP = "smtp"
	TransportSES  = "ses"
)

// SubmissionIDHeader carries Message.SubmissionID over SMTP.
const SubmissionIDHeader = "X-Submission-ID"

var (
	ErrNoRecipient = errors.New("mailer: no recipient specified")
	ErrNoSender    = errors.New("mailer: no sender specified")
	ErrEmptyBody   = errors.New("mailer: message body is empty")
)

// Validate reports whether msg has the fields every transport needs.
func (m Message) Validate() error {
	switch {
	case strings.TrimSpace(m.From) == "":
		return ErrNoSender
	case strings.TrimSpace(m.To) == "":
		return ErrNoRecipient
	case m.TextBody == "" && m.HTMLBody == "":
		return ErrEmptyBody
	}
	return nil
}

// FromHeader renders the From value as `"Name" <addr>`.
func (m Message) FromHeader() string {
	if m.FromName == "" {
		return m.From
	}
	return fmt.Sprintf("%q <%s>", m.FromName, m.From)
}
