package http

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// newSPAHandler serves the built frontend from dir. Requests for files that
// exist are served directly; anything else falls back to index.html so
// client-side routes deep-link correctly. API paths never reach this handler.
func newSPAHandler(dir string) http.Handler {
	fileServer := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		requested := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if !strings.HasPrefix(requested, filepath.Clean(dir)) {
			http.NotFound(w, r)
			return
		}

		if info, err := os.Stat(requested); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}

		http.ServeFile(w, r, index)
	})
}
