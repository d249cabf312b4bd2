// internal/domain/models/submission.go
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PhoneNotProvided replaces an absent phone number in outgoing mail.
const PhoneNotProvided = "Not provided"

// ContactSubmission is the JSON body posted by the contact form.
// Phone is optional; the other fields are required.
type ContactSubmission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Message string `json:"message"`
}

// SanitizedSubmission is a validated submission ready for mail composition.
// It is never persisted.
type SanitizedSubmission struct {
	ID         string
	Name       string
	Email      string
	Phone      string
	Message    string
	ReceivedAt time.Time
}

// Sanitize trims name, message and phone and strips angle brackets from
// name and message. Email is kept verbatim. The caller validates first.
func (s ContactSubmission) Sanitize(receivedAt time.Time) SanitizedSubmission {
	phone := strings.TrimSpace(s.Phone)
	if s.Phone == "" {
		phone = PhoneNotProvided
	}
	return SanitizedSubmission{
		ID:         uuid.NewString(),
		Name:       stripAngles(strings.TrimSpace(s.Name)),
		Email:      s.Email,
		Phone:      phone,
		Message:    stripAngles(strings.TrimSpace(s.Message)),
		ReceivedAt: receivedAt,
	}
}

var angleReplacer = strings.NewReplacer("<", "", ">", "")

func stripAngles(s string) string {
	return angleReplacer.Replace(s)
}
