package server

import (
	"bytes"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/ashita-ai/hospitalops/internal/model"
)

// dashboardShell is the single page every client-side dashboard route
// (/audit, /billing, /staff, ...) resolves to.
const dashboardShell = "index.html"

// dashboardHandler serves the operations dashboard bundle. It is mounted as
// the mux catch-all, so anything reaching it matched no registered route.
type dashboardHandler struct {
	fsys  fs.FS
	files http.Handler
}

func newDashboardHandler(fsys fs.FS) http.Handler {
	return &dashboardHandler{fsys: fsys, files: http.FileServerFS(fsys)}
}

func (h *dashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clean := path.Clean("/" + r.URL.Path)

	if isAPIRoute(clean) {
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "endpoint not found")
		return
	}

	name := strings.TrimPrefix(clean, "/")
	if name != "" && name != dashboardShell {
		if info, err := fs.Stat(h.fsys, name); err == nil && !info.IsDir() {
			w.Header().Set("Cache-Control", assetCacheControl(clean))
			h.files.ServeHTTP(w, r)
			return
		}
	}
	h.serveShell(w, r)
}

func (h *dashboardHandler) serveShell(w http.ResponseWriter, r *http.Request) {
	page, err := fs.ReadFile(h.fsys, dashboardShell)
	if err != nil {
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "dashboard not built")
		return
	}
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, dashboardShell, time.Time{}, bytes.NewReader(page))
}

// isAPIRoute reports whether p belongs to the JSON API surface. Unmatched
// API routes get a JSON 404 rather than the dashboard page.
func isAPIRoute(p string) bool {
	return strings.HasPrefix(p, "/v1/") || p == "/mcp"
}

// assetCacheControl picks the Cache-Control value for a bundled file.
// Files under /assets/ carry a content hash in their name.
func assetCacheControl(p string) string {
	if strings.HasPrefix(p, "/assets/") {
		return "public, max-age=31536000, immutable"
	}
	return "public, max-age=3600"
}
