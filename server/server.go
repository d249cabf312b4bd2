// server/server.go
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/skms/website/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// WithShutdownSignals returns a context canceled on SIGINT or SIGTERM.
// The returned cancel function also stops signal delivery.
func WithShutdownSignals(parent context.Context, logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			if logger != nil {
				logger.Info("shutdown signal received", zap.Any("signal", sig))
			}
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// ListenAndServeWithContext serves handler over HTTP, or over HTTPS with
// the configured certificate plus an HTTP→HTTPS redirect listener on
// http_port. It blocks until ctx is canceled (graceful shutdown bounded by
// shutdown_timeout) or a listener fails.
func ListenAndServeWithContext(ctx context.Context, cfg *config.CoreConfig, handler http.Handler, logger *zap.Logger) error {
	if cfg == nil {
		return errors.New("server: cfg is nil")
	}
	if handler == nil {
		return errors.New("server: handler is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	srv := newHTTPServer(cfg, handler, logger)
	httpAddr := ":" + strconv.Itoa(cfg.HTTP.HTTPPort)

	var (
		redirect *http.Server
		ln       net.Listener
		err      error
	)

	if cfg.HTTP.UseHTTPS {
		cert, loadErr := tls.LoadX509KeyPair(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if loadErr != nil {
			return fmt.Errorf("load TLS cert/key: %w", loadErr)
		}
		tlsCfg := &tls.Config{
			MinVersion:   tls.VersionTLS12,
			Certificates: []tls.Certificate{cert},
		}
		srv.TLSConfig = tlsCfg

		httpsAddr := ":" + strconv.Itoa(cfg.HTTP.HTTPSPort)
		base, listenErr := net.Listen("tcp", httpsAddr)
		if listenErr != nil {
			return fmt.Errorf("listen https %s: %w", httpsAddr, listenErr)
		}
		ln = tls.NewListener(base, tlsCfg)
		redirect = newHTTPServer(cfg, httpsRedirectHandler(cfg.HTTP.HTTPSPort), logger)
		redirect.Addr = httpAddr
		logger.Info("HTTPS server listening", zap.String("addr", httpsAddr))
	} else {
		ln, err = net.Listen("tcp", httpAddr)
		if err != nil {
			return fmt.Errorf("listen http %s: %w", httpAddr, err)
		}
		logger.Info("HTTP server listening", zap.String("addr", ln.Addr().String()))
	}

	serveErr := make(chan error, 2)
	go func() { serveErr <- srv.Serve(ln) }()
	if redirect != nil {
		go func() { serveErr <- redirect.ListenAndServe() }()
		logger.Info("HTTP → HTTPS redirect listening", zap.String("addr", httpAddr))
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down server…")
		// ctx is already canceled; the shutdown window gets its own deadline.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if redirect != nil {
			_ = redirect.Shutdown(shutdownCtx)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		logger.Info("server stopped gracefully")
		return nil

	case err := <-serveErr:
		_ = srv.Close()
		if redirect != nil {
			_ = redirect.Close()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}

func newHTTPServer(cfg *config.CoreConfig, handler http.Handler, logger *zap.Logger) *http.Server {
	srv := &http.Server{
		Handler:           handler,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}
	if stdlog, err := zap.NewStdLogAt(logger, zapcore.WarnLevel); err == nil {
		srv.ErrorLog = stdlog
	}
	return srv
}

// httpsRedirectHandler redirects to the HTTPS listener, keeping host and
// request URI. Hosts or URIs with control characters get 400.
func httpsRedirectHandler(httpsPort int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := r.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
		uri := r.URL.RequestURI()
		if !isSafeHeaderValue(host) || !isSafeHeaderValue(uri) || strings.ContainsAny(host, "/\\") {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		if httpsPort != 443 {
			host = net.JoinHostPort(host, strconv.Itoa(httpsPort))
		} else if strings.Contains(host, ":") {
			host = "[" + host + "]"
		}
		http.Redirect(w, r, "https://"+host+uri, http.StatusMovedPermanently)
	})
}

func isSafeHeaderValue(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < 0x20 || c == 0x7f {
			return false
		}
	}
	return true
}
