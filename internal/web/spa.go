// Package web serves a built single-page frontend next to the API.
package web

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
)

const indexFile = "index.html"

// SPA serves files from a frontend build. Paths that do not name a file
// fall back to index.html so client-side routes survive a reload.
type SPA struct {
	fsys       fs.FS
	fileServer http.Handler
}

// NewSPA serves the frontend in fsys. fsys must contain index.html.
func NewSPA(fsys fs.FS) (*SPA, error) {
	if _, err := fs.Stat(fsys, indexFile); err != nil {
		return nil, err
	}
	return &SPA{fsys: fsys, fileServer: http.FileServerFS(fsys)}, nil
}

// NewSPADir serves the frontend built into dir.
func NewSPADir(dir string) (*SPA, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("web: " + dir + " is not a directory")
	}
	return NewSPA(os.DirFS(dir))
}

func (s *SPA) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	if r.URL.Path == "/favicon.ico" {
		http.Redirect(w, r, "/favicon.svg", http.StatusFound)
		return
	}

	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name != "" && name != indexFile {
		if info, err := fs.Stat(s.fsys, name); err == nil && !info.IsDir() {
			s.fileServer.ServeHTTP(w, r)
			return
		}
	}

	// http.FileServerFS redirects /index.html to /, so the index is served
	// directly.
	http.ServeFileFS(w, r, s.fsys, indexFile)
}
