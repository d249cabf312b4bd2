// internal/app/features/contact/validate.go
package contact

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/skms/website/internal/domain/models"
)

// Validation messages, in the order the rules run.
const (
	MsgMissingFields = "Name, email, and message are required."
	MsgInvalidName   = "Please enter a valid name."
	MsgInvalidEmail  = "Please enter a valid email address."
	MsgShortMessage  = "Message must be at least 10 characters long."
	MsgInvalidPhone  = "Please enter a valid phone number."
)

const (
	minNameRunes    = 2
	minMessageRunes = 10
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[+]?[\d\s\-()]{10,}$`)
)

// Validate applies the field rules in order and returns the first failure.
// Lengths count code points of the trimmed value. Email and phone are
// matched as sent, without trimming.
func Validate(s models.ContactSubmission) *Error {
	if s.Name == "" || s.Email == "" || s.Message == "" {
		return validationError(MsgMissingFields)
	}
	if utf8.RuneCountInString(strings.TrimSpace(s.Name)) < minNameRunes {
		return validationError(MsgInvalidName)
	}
	if !emailPattern.MatchString(s.Email) {
		return validationError(MsgInvalidEmail)
	}
	if utf8.RuneCountInString(strings.TrimSpace(s.Message)) < minMessageRunes {
		return validationError(MsgShortMessage)
	}
	if s.Phone != "" && !phonePattern.MatchString(s.Phone) {
		return validationError(MsgInvalidPhone)
	}
	return nil
}
