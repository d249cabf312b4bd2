// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/skms/website/config"
	"github.com/skms/website/internal/app/features/contact"
	"github.com/skms/website/internal/app/mailer"
)

// appEnvPrefix is empty so the app keys keep their plain names
// (SMTP_USER, BUSINESS_EMAIL, ...).
const appEnvPrefix = ""

// appKeys are the settings owned by the site rather than the core server.
var appKeys = []config.AppKey{
	{Name: "mail_transport", Default: mailer.TransportSMTP, Desc: `Mail transport: "smtp" or "ses"`},
	{Name: "smtp_user", Default: "", Desc: "SMTP username; also the default sender address"},
	{Name: "smtp_pass", Default: "", Desc: "SMTP password", Secret: true},
	{Name: "smtp_host", Default: "smtp.gmail.com", Desc: "SMTP server host"},
	{Name: "smtp_port", Default: 587, Desc: "SMTP server port (STARTTLS)"},
	{Name: "smtp_insecure_skip_verify", Default: false, Desc: "Skip SMTP server certificate verification (dev relays only)"},
	{Name: "business_email", Default: "", Desc: "Recipient of contact notifications (default: sender)"},
	{Name: "mail_from", Default: "", Desc: "Sender address (default: smtp_user)"},
	{Name: "ses_region", Default: "us-east-1", Desc: "Amazon SES region"},
	{Name: "ses_access_key_id", Default: "", Desc: "Amazon SES access key id", Secret: true},
	{Name: "ses_secret_access_key", Default: "", Desc: "Amazon SES secret access key", Secret: true},
	{Name: "dispatch_timeout", Default: contact.DefaultDispatchTimeout.String(), Desc: "Deadline for verify plus both sends"},
	{Name: "static_dir", Default: "", Desc: "Directory with the static site; empty disables static serving"},
}

// AppConfig holds the site-specific configuration.
type AppConfig struct {
	Mail            MailConfig
	DispatchTimeout time.Duration
	StaticDir       string
}

// MailConfig selects and configures the mail transport.
type MailConfig struct {
	Transport string

	SMTPUser               string
	SMTPPass               string
	SMTPHost               string
	SMTPPort               int
	SMTPInsecureSkipVerify bool

	BusinessEmail string
	MailFrom      string

	SESRegion          string
	SESAccessKeyID     string
	SESSecretAccessKey string
}

// Sender is the From address: mail_from, else smtp_user.
func (m MailConfig) Sender() string {
	if m.MailFrom != "" {
		return m.MailFrom
	}
	return m.SMTPUser
}

// Addresses resolves the sender and business recipient.
func (m MailConfig) Addresses() contact.Addresses {
	sender := m.Sender()
	business := m.BusinessEmail
	if business == "" {
		business = sender
	}
	return contact.Addresses{Sender: sender, Business: business}
}

// MissingCredentials lists, by environment variable name, the credentials
// the selected transport needs but does not have.
func (m MailConfig) MissingCredentials() []string {
	var missing []string
	switch m.Transport {
	case mailer.TransportSES:
		if m.SESAccessKeyID == "" {
			missing = append(missing, "SES_ACCESS_KEY_ID")
		}
		if m.SESSecretAccessKey == "" {
			missing = append(missing, "SES_SECRET_ACCESS_KEY")
		}
		if m.Sender() == "" {
			missing = append(missing, "MAIL_FROM")
		}
	default:
		if m.SMTPUser == "" {
			missing = append(missing, "SMTP_USER")
		}
		if m.SMTPPass == "" {
			missing = append(missing, "SMTP_PASS")
		}
	}
	return missing
}

func (m MailConfig) validate() error {
	var invalid []string
	switch m.Transport {
	case mailer.TransportSMTP:
		if strings.TrimSpace(m.SMTPHost) == "" {
			invalid = append(invalid, "smtp_host must not be empty")
		}
		if m.SMTPPort <= 0 || m.SMTPPort > 65535 {
			invalid = append(invalid, "smtp_port must be in 1..65535")
		}
	case mailer.TransportSES:
		if strings.TrimSpace(m.SESRegion) == "" {
			invalid = append(invalid, "ses_region must not be empty")
		}
	default:
		invalid = append(invalid, fmt.Sprintf("mail_transport must be %q or %q, got %q",
			mailer.TransportSMTP, mailer.TransportSES, m.Transport))
	}
	if len(invalid) > 0 {
		return fmt.Errorf("app configuration errors: invalid: %s", strings.Join(invalid, ", "))
	}
	return nil
}

func appConfigFrom(vals config.AppConfigValues) (AppConfig, error) {
	mail := MailConfig{
		Transport:              strings.ToLower(vals.String("mail_transport")),
		SMTPUser:               vals.String("smtp_user"),
		SMTPPass:               vals.String("smtp_pass"),
		SMTPHost:               vals.String("smtp_host"),
		SMTPPort:               vals.Int("smtp_port"),
		SMTPInsecureSkipVerify: vals.Bool("smtp_insecure_skip_verify"),
		BusinessEmail:          vals.String("business_email"),
		MailFrom:               vals.String("mail_from"),
		SESRegion:              vals.String("ses_region"),
		SESAccessKeyID:         vals.String("ses_access_key_id"),
		SESSecretAccessKey:     vals.String("ses_secret_access_key"),
	}
	if err := mail.validate(); err != nil {
		return AppConfig{}, err
	}
	return AppConfig{
		Mail:            mail,
		DispatchTimeout: vals.Duration("dispatch_timeout", contact.DefaultDispatchTimeout),
		StaticDir:       vals.String("static_dir"),
	}, nil
}
