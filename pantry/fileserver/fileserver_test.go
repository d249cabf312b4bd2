package fileserver

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeSite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"index.html":   "<h1>SKMS</h1>",
		"script.js":    "console.log('menu')",
		"script.js.gz": "gzipped-bytes",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestNew_RejectsMissingDir(t *testing.T) {
	if _, err := New("", filepath.Join(t.TempDir(), "nope"), Options{}); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestHandler(t *testing.T) {
	h, err := New("", writeSite(t), Options{CacheControl: "public, max-age=300"})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name         string
		method       string
		path         string
		accept       string
		wantStatus   int
		wantBody     string
		wantEncoding string
	}{
		{"index", http.MethodGet, "/", "", http.StatusOK, "<h1>SKMS</h1>", ""},
		{"plain script", http.MethodGet, "/script.js", "", http.StatusOK, "console.log('menu')", ""},
		{"gzip script", http.MethodGet, "/script.js", "br, gzip", http.StatusOK, "gzipped-bytes", "gzip"},
		{"missing", http.MethodGet, "/about.html", "", http.StatusNotFound, "", ""},
		{"post rejected", http.MethodPost, "/index.html", "", http.StatusMethodNotAllowed, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.accept != "" {
				req.Header.Set("Accept-Encoding", tt.accept)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
			if got := rec.Header().Get("Content-Encoding"); got != tt.wantEncoding {
				t.Errorf("Content-Encoding = %q, want %q", got, tt.wantEncoding)
			}
			if tt.wantEncoding != "" && rec.Header().Get("Vary") != "Accept-Encoding" {
				t.Errorf("missing Vary header")
			}
		})
	}
}

func TestMimeTypeByOriginal(t *testing.T) {
	if got := mimeTypeByOriginal("styles.css.br"); got != "text/css; charset=utf-8" {
		t.Errorf("css = %q", got)
	}
	if got := mimeTypeByOriginal("blob.unknownext"); got != "application/octet-stream" {
		t.Errorf("unknown = %q", got)
	}
}
