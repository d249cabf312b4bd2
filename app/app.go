// app/app.go
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/skms/website/config"
	"github.com/skms/website/httputil"
	"github.com/skms/website/logging"
	"github.com/skms/website/metrics"
	"github.com/skms/website/pantry/version"
	"github.com/skms/website/server"
	"go.uber.org/zap"
)

// Hooks defines the integration points an application provides to Run.
type Hooks[C any, T any] struct {
	// Name is used only for logging/diagnostics.
	Name string

	// LoadConfig returns the core config and the app-specific config.
	// Returning an error aborts startup.
	LoadConfig func(logger *zap.Logger) (*config.CoreConfig, C, error)

	// ConnectTransport builds the outbound dependencies (the mail
	// transport) from the loaded config. It may return a bundle whose
	// transport is unset when credentials are missing outside prod.
	ConnectTransport func(ctx context.Context, core *config.CoreConfig, appCfg C, logger *zap.Logger) (T, error)

	// BuildHandler constructs the final http.Handler: router, middleware
	// and routes.
	BuildHandler func(core *config.CoreConfig, appCfg C, deps T, logger *zap.Logger) (http.Handler, error)
}

// Run executes the startup sequence:
//
//  1. Bootstrap logger
//  2. Load core + app config (Hooks.LoadConfig)
//  3. Build final logger based on core config
//  4. Register default metrics
//  5. Connect the mail transport (Hooks.ConnectTransport)
//  6. Wire shutdown signals to a context
//  7. Build the HTTP handler (Hooks.BuildHandler)
//  8. Start the HTTP(S) server and block until shutdown
//
// Any startup failure is returned to the caller; main decides the exit code.
func Run[C any, T any](ctx context.Context, hooks Hooks[C, T]) error {
	if hooks.LoadConfig == nil || hooks.ConnectTransport == nil || hooks.BuildHandler == nil {
		return fmt.Errorf("app %q: LoadConfig, ConnectTransport and BuildHandler hooks are required", hooks.Name)
	}

	bootstrap := logging.BootstrapLogger()
	defer func() { _ = bootstrap.Sync() }()
	bootstrap.Info("bootstrap logger initialized", zap.String("app", hooks.Name))

	coreCfg, appCfg, err := hooks.LoadConfig(bootstrap)
	if err != nil {
		bootstrap.Error("config load failed", zap.Error(err))
		return fmt.Errorf("load config: %w", err)
	}
	bootstrap.Info("config loaded",
		zap.String("env", coreCfg.Env),
		zap.String("log_level", coreCfg.LogLevel),
	)

	logger, err := logging.BuildLogger(coreCfg.LogLevel, coreCfg.Env)
	if err != nil {
		bootstrap.Error("logger build failed", zap.Error(err))
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("logger initialized", zap.String("app", hooks.Name), zap.String("version", version.String()))
	if !coreCfg.IsProd() {
		logger.Debug("core config", zap.String("config", coreCfg.Dump()))
	}

	httputil.SetLogger(logger)
	metrics.RegisterDefault(logger)

	deps, err := hooks.ConnectTransport(ctx, coreCfg, appCfg, logger)
	if err != nil {
		logger.Error("mail transport setup failed", zap.Error(err))
		return fmt.Errorf("connect transport: %w", err)
	}

	ctx, cancel := server.WithShutdownSignals(ctx, logger)
	defer cancel()

	handler, err := hooks.BuildHandler(coreCfg, appCfg, deps, logger)
	if err != nil {
		logger.Error("handler build failed", zap.Error(err))
		return fmt.Errorf("build handler: %w", err)
	}

	if err := server.ListenAndServeWithContext(ctx, coreCfg, handler, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
