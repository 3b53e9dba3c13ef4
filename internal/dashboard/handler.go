// Package dashboard serves the compiled single-page dashboard.
package dashboard

import (
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// reserved paths belong to the API server, never to the SPA.
var reserved = []string{"/healthz", "/readyz", "/metrics"}

// Handler serves the embedded dashboard build.
func Handler() http.Handler {
	if distFS == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "dashboard not available (dev build)", http.StatusNotFound)
		})
	}
	sub, err := fs.Sub(distFS, "dist")
	if err != nil {
		panic("dashboard: sub filesystem: " + err.Error())
	}
	return New(sub)
}

// New serves the SPA rooted at fsys. Paths that do not name a file fall back
// to index.html so client-side routes such as /views/maintenance resolve.
// index.html is never cached; anything under /assets/ is content-hashed and
// cached for a year.
func New(fsys fs.FS) http.Handler {
	files := http.FileServer(http.FS(fsys))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isReserved(r.URL.Path) {
			http.NotFound(w, r)
			return
		}

		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if name == "" || name == "." {
			name = "index.html"
		}

		if name != "index.html" {
			if info, err := fs.Stat(fsys, name); err == nil && !info.IsDir() {
				if strings.HasPrefix(name, "assets/") {
					w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
				}
				files.ServeHTTP(w, r)
				return
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				http.Error(w, "dashboard: "+err.Error(), http.StatusInternalServerError)
				return
			}
			// Missing asset files are real 404s; everything else is a route.
			if path.Ext(name) != "" {
				http.NotFound(w, r)
				return
			}
		}

		serveIndex(w, r, fsys)
	})
}

func serveIndex(w http.ResponseWriter, r *http.Request, fsys fs.FS) {
	data, err := fs.ReadFile(fsys, "index.html")
	if err != nil {
		http.Error(w, "dashboard: index.html missing from build", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(data)
}

func isReserved(p string) bool {
	if strings.HasPrefix(p, "/api/") {
		return true
	}
	for _, r := range reserved {
		if p == r {
			return true
		}
	}
	return false
}
