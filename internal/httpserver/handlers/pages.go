package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/MrSnakeDoc/gieok/internal/httpserver/deps"
	"github.com/MrSnakeDoc/gieok/internal/session"
)

// pageDescriptor stands in for the frontend when no bundle is configured.
type pageDescriptor struct {
	Path       string  `json:"path"`
	Protected  bool    `json:"protected"`
	Login      bool    `json:"login,omitempty"`
	BackTarget string  `json:"back_target,omitempty"`
	SubjectID  *string `json:"subject_id,omitempty"`
}

// Pages serves the presentation layer behind the session guard: files
// from StaticDir with an index.html fallback, or a JSON descriptor.
func Pages(d deps.Deps) http.HandlerFunc {
	var files http.Handler
	if d.StaticDir != "" {
		files = http.FileServer(http.Dir(d.StaticDir))
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
			return
		}

		// The login page replaces the protected history entry it was
		// reached from.
		if r.URL.Path == d.Guard.LoginPath() {
			if back := d.Guard.BackTarget(r.URL.Query()); back != "" {
				w.Header().Set("X-Back-Target", back)
			}
		}

		if files != nil {
			serveStatic(w, r, d.StaticDir, files)
			return
		}

		desc := pageDescriptor{
			Path:      r.URL.Path,
			Protected: d.Guard.IsProtected(r.URL.Path),
			Login:     r.URL.Path == d.Guard.LoginPath(),
		}
		if desc.Login {
			desc.BackTarget = d.Guard.BackTarget(r.URL.Query())
		}
		if s, ok := session.FromContext(r.Context()); ok {
			desc.SubjectID = &s.SubjectID
		}
		writeJSON(w, http.StatusOK, desc)
	}
}

// serveStatic falls back to index.html for client side routes.
func serveStatic(w http.ResponseWriter, r *http.Request, dir string, files http.Handler) {
	clean := path.Clean("/" + r.URL.Path)
	if info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(clean))); err == nil && !info.IsDir() {
		files.ServeHTTP(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(dir, "index.html"))
}
