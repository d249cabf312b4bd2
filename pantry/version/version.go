// pantry/version/version.go
package version

import (
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/skms/website/httputil"
)

// Set at build time:
//
//	go build -ldflags "-X github.com/skms/website/pantry/version.Version=1.0.0 \
//	                   -X github.com/skms/website/pantry/version.Commit=abc123 \
//	                   -X github.com/skms/website/pantry/version.BuildTime=2025-01-15T10:30:00Z"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info contains version and build information.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Get returns the current version info.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

// Mount attaches GET /version, answering with Info as JSON.
func Mount(r chi.Router) {
	info := Get()
	r.Method(http.MethodGet, "/version", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, info)
	}))
}

// String returns a human-readable version such as
// "1.2.3 (abc123, built 2025-01-15T10:30:00Z)".
func String() string {
	if Version == "dev" {
		return "dev"
	}
	return Version + " (" + Commit + ", built " + BuildTime + ")"
}
