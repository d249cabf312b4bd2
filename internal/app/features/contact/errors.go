// internal/app/features/contact/errors.go
package contact

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a contact failure. It selects the HTTP status and
// whether the message is shown to the caller as is.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindMethod
	KindConfiguration
	KindVerification
	KindDispatch
	KindUnhandled
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindMethod:
		return "method"
	case KindConfiguration:
		return "configuration"
	case KindVerification:
		return "verification"
	case KindDispatch:
		return "dispatch"
	default:
		return "unhandled"
	}
}

// Status returns the HTTP status for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindMethod:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// Public messages for the server-side kinds. The cause is logged, never sent.
const (
	MsgMethodNotAllowed = "Method not allowed"
	MsgConfiguration    = "Server configuration error. Please contact us directly."
	MsgVerification     = "Email service configuration error. Please contact us directly at " + BusinessEmail + " or " + BusinessPhone + "."
	MsgDispatch         = "We encountered an error sending your message. Please try again or contact us directly at " + BusinessEmail + " or " + BusinessPhone + "."
	MsgSuccess          = "Your message has been sent successfully. We will get back to you soon!"
)

// Error is a contact failure with a client-facing message and an optional
// internal cause.
type Error struct {
	Kind    Kind
	Message string // safe to return to the caller
	Err     error  // logged only
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status code for the error.
func (e *Error) Status() int { return e.Kind.Status() }

func validationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func methodError() *Error {
	return &Error{Kind: KindMethod, Message: MsgMethodNotAllowed}
}

func configurationError(err error) *Error {
	return &Error{Kind: KindConfiguration, Message: MsgConfiguration, Err: err}
}

func verificationError(err error) *Error {
	return &Error{Kind: KindVerification, Message: MsgVerification, Err: err}
}

func dispatchError(err error) *Error {
	return &Error{Kind: KindDispatch, Message: MsgDispatch, Err: err}
}

// asError extracts an *Error from err, or classifies it as unhandled.
func asError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindUnhandled, Message: MsgDispatch, Err: err}
}
