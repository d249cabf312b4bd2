// httputil/json.go
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"go.uber.org/zap"
)

// ErrorResponse is the JSON error envelope used outside the contact API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ErrEmptyBody is returned by the Bind functions for an absent body.
var ErrEmptyBody = errors.New("request body is empty")

var jsonLogger = zap.NewNop()

// SetLogger sets the logger used to report encode failures that happen
// after the status line is sent. Call once during startup.
func SetLogger(logger *zap.Logger) {
	if logger != nil {
		jsonLogger = logger
	}
}

// WriteJSON writes v as JSON with the given status. Status codes outside
// 100-599 are clamped to 500.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	if status < 100 || status > 599 {
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		typeName := "nil"
		if v != nil {
			typeName = reflect.TypeOf(v).String()
		}
		jsonLogger.Error("json encoding failed after headers sent",
			zap.String("type", typeName),
			zap.Error(err))
	}
}

// JSONError writes a structured JSON error with an error code and message.
func JSONError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// BindJSON decodes the request body into v, rejecting unknown fields.
// Returned errors are safe to show to clients.
func BindJSON(r *http.Request, v any) error {
	return bind(r, v, true)
}

// BindJSONAllowUnknown is BindJSON without the unknown-field check.
func BindJSONAllowUnknown(r *http.Request, v any) error {
	return bind(r, v, false)
}

func bind(r *http.Request, v any, strict bool) error {
	// ContentLength 0 is an explicit empty body; -1 (chunked) must be
	// decoded and an empty stream surfaces as io.EOF below.
	if r.Body == nil || r.ContentLength == 0 {
		return ErrEmptyBody
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		return parseJSONError(err)
	}
	if dec.More() {
		return errors.New("request body contains multiple JSON values")
	}
	return nil
}

// parseJSONError converts json decoding errors into client-safe messages.
func parseJSONError(err error) error {
	if errors.Is(err, io.EOF) {
		return ErrEmptyBody
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Errorf("malformed JSON at position %d", syntaxErr.Offset)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Errorf("invalid value for field %q: expected %s", typeErr.Field, typeErr.Type.String())
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errors.New("request body too large")
	}

	// "json: unknown field \"x\"" when DisallowUnknownFields is set.
	if field, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		return fmt.Errorf("unknown field %q", strings.Trim(field, "\""))
	}

	return errors.New("invalid JSON in request body")
}
