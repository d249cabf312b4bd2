package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordSubmission(t *testing.T) {
	before := testutil.ToFloat64(contactSubmissions.WithLabelValues("sent"))
	RecordSubmission("sent")
	RecordSubmission("sent")
	if got := testutil.ToFloat64(contactSubmissions.WithLabelValues("sent")) - before; got != 2 {
		t.Errorf("sent delta = %v, want 2", got)
	}
}

func TestRegisterDefault_Idempotent(t *testing.T) {
	RegisterDefault(nil)
	RegisterDefault(nil)
}

func TestHTTPMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(HTTPMetrics)
	r.Get("/files/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/files/report.pdf", nil))

	reg := prometheus.NewRegistry()
	reg.MustRegister(reqDuration)
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	found := false
	for _, fam := range families {
		for _, m := range fam.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["path"] == "/files/{name}" && labels["status"] == "418" && labels["method"] == http.MethodGet {
				found = m.GetHistogram().GetSampleCount() > 0
			}
			if labels["path"] == "/files/report.pdf" {
				t.Error("raw path used as label")
			}
		}
	}
	if !found {
		t.Error("no observation for route /files/{name}")
	}
}

func TestTruncateUTF8(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"héllo", 2, "h"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := truncateUTF8(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateUTF8(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestRouteLabel_Truncates(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/"+strings.Repeat("a", 400), nil)
	if got := routeLabel(req); len(got) != maxPathLabelLength {
		t.Errorf("len = %d, want %d", len(got), maxPathLabelLength)
	}
}
