// internal/app/bootstrap/hooks.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/skms/website/app"
	"github.com/skms/website/config"
	"github.com/skms/website/internal/app/features/contact"
	"github.com/skms/website/internal/app/mailer"
	"github.com/skms/website/metrics"
	"github.com/skms/website/middleware"
	"github.com/skms/website/pantry/fileserver"
	"github.com/skms/website/pantry/health"
	"github.com/skms/website/pantry/version"
	"github.com/skms/website/router"
	"go.uber.org/zap"
)

// readyTimeout bounds the transport verification behind /ready.
const readyTimeout = 10 * time.Second

// LoadConfig loads the core config plus the site's mail settings.
// Missing mail credentials abort startup in prod and only log in dev.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, vals, err := config.Load(logger, appEnvPrefix, appKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}
	return finishConfig(logger, coreCfg, vals)
}

func finishConfig(logger *zap.Logger, coreCfg *config.CoreConfig, vals config.AppConfigValues) (*config.CoreConfig, AppConfig, error) {
	appCfg, err := appConfigFrom(vals)
	if err != nil {
		return nil, AppConfig{}, err
	}

	if missing := appCfg.Mail.MissingCredentials(); len(missing) > 0 {
		if coreCfg.IsProd() {
			return nil, AppConfig{}, fmt.Errorf("missing mail credentials: %s", strings.Join(missing, ", "))
		}
		logger.Error("missing mail credentials; contact submissions will fail with a configuration error",
			zap.Strings("missing", missing))
	}
	return coreCfg, appCfg, nil
}

// ConnectTransport builds the configured mail transport. With missing
// credentials it returns empty Deps so the site still serves.
func ConnectTransport(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (Deps, error) {
	if len(appCfg.Mail.MissingCredentials()) > 0 {
		return Deps{}, nil
	}

	t, err := newTransport(ctx, appCfg)
	if err != nil {
		return Deps{}, err
	}
	logger.Info("mail transport ready",
		zap.String("transport", appCfg.Mail.Transport),
		zap.String("sender", appCfg.Mail.Sender()),
		zap.Duration("dispatch_timeout", appCfg.DispatchTimeout),
	)
	if appCfg.Mail.SMTPInsecureSkipVerify {
		logger.Warn("SMTP certificate verification is disabled")
	}
	return Deps{Transport: t}, nil
}

func newTransport(ctx context.Context, appCfg AppConfig) (mailer.Transport, error) {
	m := appCfg.Mail
	switch m.Transport {
	case mailer.TransportSES:
		return mailer.NewSES(ctx, mailer.SESConfig{
			Region:          m.SESRegion,
			AccessKeyID:     m.SESAccessKeyID,
			SecretAccessKey: m.SESSecretAccessKey,
		})
	case mailer.TransportSMTP:
		return mailer.NewSMTP(mailer.SMTPConfig{
			Host:               m.SMTPHost,
			Port:               m.SMTPPort,
			Username:           m.SMTPUser,
			Password:           m.SMTPPass,
			InsecureSkipVerify: m.SMTPInsecureSkipVerify,
			Timeout:            appCfg.DispatchTimeout,
		})
	default:
		return nil, fmt.Errorf("unknown mail transport %q", m.Transport)
	}
}

// BuildHandler wires the router:
//
//   - /api/contact, every method, with its own fixed CORS headers and its
//     own body cap answered in the contact envelope
//   - /health, /ready, /version and /metrics behind config-driven CORS
//   - the static site at /*, when static_dir is set
//
// Everything except the contact route sits behind LimitBodySize.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps Deps, logger *zap.Logger) (http.Handler, error) {
	r := router.New(coreCfg, logger)

	contactHandler := contact.NewHandler(contact.Config{
		Addresses:          appCfg.Mail.Addresses(),
		MissingCredentials: appCfg.Mail.MissingCredentials(),
		DispatchTimeout:    appCfg.DispatchTimeout,
		MaxBodyBytes:       coreCfg.MaxRequestBodyBytes,
	}, deps.Transport, logger.Named("contact"))
	contact.Mount(r, contactHandler)

	var static http.Handler
	if appCfg.StaticDir != "" {
		h, err := fileserver.New("", appCfg.StaticDir, fileserver.Options{})
		if err != nil {
			return nil, fmt.Errorf("static_dir: %w", err)
		}
		static = h
		logger.Info("serving static site", zap.String("dir", appCfg.StaticDir))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.LimitBodySize(coreCfg.MaxRequestBodyBytes))

		r.Group(func(r chi.Router) {
			r.Use(middleware.CORSFromConfig(coreCfg))

			health.Mount(r, logger)
			health.MountAt(r, "/ready", map[string]health.Check{
				"mail": mailCheck(deps.Transport),
			}, readyTimeout, logger)
			version.Mount(r)
			r.Method(http.MethodGet, "/metrics", metrics.Handler())
		})

		if static != nil {
			r.Method(http.MethodGet, "/*", static)
			r.Method(http.MethodHead, "/*", static)
		}
	})

	return r, nil
}

var errNoTransport = errors.New("mail transport not configured")

func mailCheck(t mailer.Transport) health.Check {
	return func(ctx context.Context) error {
		if t == nil {
			return errNoTransport
		}
		return t.Verify(ctx)
	}
}

// Hooks wires the site into the app lifecycle.
var Hooks = app.Hooks[AppConfig, Deps]{
	Name:             "skms-website",
	LoadConfig:       LoadConfig,
	ConnectTransport: ConnectTransport,
	BuildHandler:     BuildHandler,
}
