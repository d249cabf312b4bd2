// pantry/fileserver/fileserver.go

// Package fileserver serves the static site (HTML pages, script.js and
// assets) from a directory, preferring pre-compressed .br/.gz variants
// when the client accepts them.
package fileserver

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Options configures the static file handler behavior.
type Options struct {
	// CacheControl sets the Cache-Control header for all responses.
	CacheControl string

	// DisablePrecompressed disables checking for .br and .gz variants.
	DisablePrecompressed bool
}

// New returns a handler serving rootDir under urlPrefix. It fails when
// rootDir is not a readable directory.
//
//	h, err := fileserver.New("", "public", fileserver.Options{})
//	r.Handle("/*", h)
func New(urlPrefix, rootDir string, opts Options) (http.Handler, error) {
	fi, err := os.Stat(rootDir)
	if err != nil {
		return nil, fmt.Errorf("fileserver: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("fileserver: %s is not a directory", rootDir)
	}
	return Handler(urlPrefix, rootDir, opts), nil
}

// Handler serves rootDir without checking it first.
func Handler(urlPrefix, rootDir string, opts Options) http.Handler {
	root := http.Dir(rootDir)
	fs := http.FileServer(root)

	return http.StripPrefix(urlPrefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		if opts.CacheControl != "" {
			w.Header().Set("Cache-Control", opts.CacheControl)
		}

		req := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if !opts.DisablePrecompressed && req != "" && servePrecompressed(w, r, root, req) {
			return
		}
		fs.ServeHTTP(w, r)
	}))
}

// servePrecompressed serves req.br or req.gz when present and accepted.
func servePrecompressed(w http.ResponseWriter, r *http.Request, root http.Dir, req string) bool {
	candidates := []struct {
		ext      string
		encoding string
	}{
		{".br", "br"},
		{".gz", "gzip"},
	}

	for _, cand := range candidates {
		if !acceptsEncoding(r, cand.encoding) {
			continue
		}
		f, err := root.Open(req + cand.ext)
		if err != nil {
			continue
		}
		fi, err := f.Stat()
		if err != nil || fi.IsDir() {
			_ = f.Close()
			continue
		}

		w.Header().Set("Content-Encoding", cand.encoding)
		w.Header().Set("Vary", "Accept-Encoding")
		w.Header().Set("Content-Type", mimeTypeByOriginal(req))
		http.ServeContent(w, r, req, fi.ModTime(), f)
		_ = f.Close()
		return true
	}
	return false
}

// acceptsEncoding checks if the client accepts the given encoding.
func acceptsEncoding(r *http.Request, encoding string) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		enc := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if strings.EqualFold(enc, encoding) {
			return true
		}
	}
	return false
}

// mimeTypeByOriginal returns the MIME type for name without its .gz/.br
// suffix.
func mimeTypeByOriginal(name string) string {
	base := name
	for strings.HasSuffix(base, ".br") || strings.HasSuffix(base, ".gz") {
		base = strings.TrimSuffix(strings.TrimSuffix(base, ".br"), ".gz")
	}
	ext := strings.ToLower(filepath.Ext(base))

	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	switch ext {
	case ".js", ".mjs":
		return "text/javascript; charset=utf-8"
	case ".json":
		return "application/json"
	case ".svg":
		return "image/svg+xml"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
