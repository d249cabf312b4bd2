// router/router.go
package router

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/skms/website/config"
	"github.com/skms/website/logging"
	"github.com/skms/website/metrics"
	"github.com/skms/website/middleware"
	"go.uber.org/zap"
)

// New creates a chi.Router with the standard middleware stack:
//   - RequestID, RealIP
//   - Recoverer (panic → JSON 500)
//   - metrics, request logging
//   - security headers and compression when enabled
//   - JSON NotFound / MethodNotAllowed handlers
//
// Routes, route-specific CORS and the body size limit are left to the
// application, so an endpoint with its own response contract can enforce
// the limit itself.
func New(coreCfg *config.CoreConfig, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.Recoverer(logger))
	r.Use(metrics.HTTPMetrics)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))
	if coreCfg.EnableCompression {
		r.Use(chimw.Compress(5))
	}

	r.NotFound(middleware.NotFoundHandler(logger))
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler(logger))

	return r
}
