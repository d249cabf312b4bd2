// pantry/health/health.go
package health

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/skms/website/httputil"
	"go.uber.org/zap"
)

// Check represents a single probe. It returns nil when the dependency is
// healthy. The ctx is derived from the incoming request.
type Check func(ctx context.Context) error

// Response is the JSON structure returned by the handler.
type Response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler runs checks on each request, each bounded by timeout (0 means
// only the request context applies).
//
// With no checks it is a liveness probe answering 200 {"status":"ok"}.
// If any check fails it answers 503 with per-check results; details go to
// the log, the body only says "error".
func Handler(checks map[string]Check, timeout time.Duration, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(names) == 0 {
			httputil.WriteJSON(w, http.StatusOK, Response{Status: "ok"})
			return
		}

		results := make(map[string]string, len(names))
		anyErr := false
		for _, name := range names {
			if err := run(r.Context(), checks[name], timeout); err != nil {
				anyErr = true
				results[name] = "error"
				logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
				continue
			}
			results[name] = "ok"
		}

		if anyErr {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, Response{Status: "error", Checks: results})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, Response{Status: "ok", Checks: results})
	})
}

func run(ctx context.Context, check Check, timeout time.Duration) error {
	if check == nil {
		return nil
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return check(ctx)
}

// Mount attaches a GET /health liveness route.
func Mount(r chi.Router, logger *zap.Logger) {
	r.Method(http.MethodGet, "/health", Handler(nil, 0, logger))
}

// MountAt attaches a GET route at path running the given checks, e.g.
// "/ready".
func MountAt(r chi.Router, path string, checks map[string]Check, timeout time.Duration, logger *zap.Logger) {
	r.Method(http.MethodGet, path, Handler(checks, timeout, logger))
}
