// internal/app/features/contact/handler.go
// Package contact implements the /api/contact endpoint: validate the form
// submission, then mail the business and the submitter concurrently.
package contact

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/skms/website/httputil"
	"github.com/skms/website/internal/app/mailer"
	"github.com/skms/website/internal/domain/models"
	"github.com/skms/website/logging"
	"github.com/skms/website/metrics"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Path is the route the contact form posts to.
const Path = "/api/contact"

// DefaultDispatchTimeout bounds verification plus both sends.
const DefaultDispatchTimeout = 30 * time.Second

// Config holds what the handler needs from startup configuration.
type Config struct {
	Addresses Addresses

	// MissingCredentials names the unset credential keys. When non-empty
	// every valid submission fails with the configuration error.
	MissingCredentials []string

	DispatchTimeout time.Duration

	// MaxBodyBytes caps the request body; <= 0 disables the cap. An
	// oversized body fails binding and is answered as missing fields.
	MaxBodyBytes int64
}

// Handler serves the contact endpoint. It keeps no state between requests.
type Handler struct {
	cfg       Config
	transport mailer.Transport
	logger    *zap.Logger
	now       func() time.Time
}

// NewHandler returns a contact handler. transport may be nil when
// credentials are missing; submissions then fail with the configuration
// error.
func NewHandler(cfg Config, transport mailer.Transport, logger *zap.Logger) *Handler {
	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = DefaultDispatchTimeout
	}
	if cfg.Addresses.Business == "" {
		cfg.Addresses.Business = cfg.Addresses.Sender
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{cfg: cfg, transport: transport, logger: logger, now: time.Now}
}

// Mount routes every method on Path to h; the handler owns the method gate.
func Mount(r chi.Router, h *Handler) {
	r.Handle(Path, h)
}

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// stage is the furthest point a submission reached.
type stage string

const (
	stageReceived   stage = "received"
	stageValidated  stage = "validated"
	stageConfigured stage = "configured"
	stageVerified   stage = "verified"
	stageSent       stage = "sent"
)

// outcome describes one processed submission for logging and metrics.
type outcome struct {
	id     string
	stage  stage
	result DispatchResult
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w.Header())
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if h.cfg.MaxBodyBytes > 0 && r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	}

	logger := logging.FromRequest(r, h.logger)
	out, err := h.process(r, logger)
	if err != nil {
		e := asError(err)
		h.logFailure(logger, out, e)
		metrics.RecordSubmission(outcomeLabel(out, e))
		httputil.WriteJSON(w, e.Status(), response{Success: false, Error: e.Message})
		return
	}

	logger.Info("contact submission responded",
		zap.String("submission_id", out.id),
		zap.String("stage", string(out.stage)),
		zap.Stringer("dispatch_result", out.result),
	)
	metrics.RecordSubmission("sent")
	httputil.WriteJSON(w, http.StatusOK, response{Success: true, Message: MsgSuccess})
}

// setCORSHeaders writes the fixed cross-origin headers the static site
// relies on. They go on every response, errors included.
func setCORSHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Credentials", "true")
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET,OPTIONS,PATCH,DELETE,POST,PUT")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
}

// process runs the pipeline up to the response. A panic anywhere in it
// becomes an unhandled error.
func (h *Handler) process(r *http.Request, logger *zap.Logger) (out outcome, err error) {
	out.stage = stageReceived
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("panic in contact handler", zap.Any("panic", rec), zap.Stack("stack"))
			err = &Error{Kind: KindUnhandled, Message: MsgDispatch, Err: fmt.Errorf("panic: %v", rec)}
		}
	}()

	if r.Method != http.MethodPost {
		return out, methodError()
	}

	var in models.ContactSubmission
	if err := httputil.BindJSONAllowUnknown(r, &in); err != nil {
		e := validationError(MsgMissingFields)
		e.Err = err
		return out, e
	}
	if e := Validate(in); e != nil {
		return out, e
	}

	sub := in.Sanitize(h.now())
	out.id = sub.ID
	out.stage = stageValidated

	if h.transport == nil || len(h.cfg.MissingCredentials) > 0 {
		return out, configurationError(fmt.Errorf("missing mail credentials: %s",
			strings.Join(h.cfg.MissingCredentials, ", ")))
	}
	out.stage = stageConfigured

	notification, err := composeNotification(sub, h.cfg.Addresses)
	if err != nil {
		return out, fmt.Errorf("compose notification: %w", err)
	}
	ack, err := composeAcknowledgement(sub, h.cfg.Addresses)
	if err != nil {
		return out, fmt.Errorf("compose acknowledgement: %w", err)
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.DispatchTimeout)
	defer cancel()

	if err := h.transport.Verify(ctx); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return out, dispatchError(fmt.Errorf("dispatch timed out during verify after %s: %w", h.cfg.DispatchTimeout, err))
		}
		return out, verificationError(err)
	}
	out.stage = stageVerified

	result, err := dispatch(ctx, h.transport, notification, ack)
	out.result = result
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("dispatch timed out after %s: %w", h.cfg.DispatchTimeout, err)
		}
		return out, dispatchError(err)
	}
	out.stage = stageSent
	return out, nil
}

func (h *Handler) logFailure(logger *zap.Logger, out outcome, e *Error) {
	level := zapcore.ErrorLevel
	switch {
	case e.Kind == KindValidation || e.Kind == KindMethod:
		level = zapcore.InfoLevel
	case e.Kind == KindDispatch && out.result != NeitherSent:
		level = zapcore.WarnLevel
	}

	ce := logger.Check(level, "contact submission failed")
	if ce == nil {
		return
	}
	fields := []zap.Field{
		zap.String("submission_id", out.id),
		zap.String("stage", string(out.stage)),
		zap.String("kind", e.Kind.String()),
		zap.Int("status", e.Status()),
	}
	if e.Kind == KindDispatch {
		fields = append(fields, zap.Stringer("dispatch_result", out.result))
	}
	if e.Err != nil {
		fields = append(fields, zap.Error(e.Err))
	}
	ce.Write(fields...)
}

func outcomeLabel(out outcome, e *Error) string {
	if e.Kind == KindDispatch {
		return out.result.String()
	}
	return e.Kind.String()
}
