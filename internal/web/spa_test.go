package web

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
)

func testSPA(t *testing.T) *SPA {
	t.Helper()
	spa, err := NewSPA(fstest.MapFS{
		"index.html":          {Data: []byte("<html>app</html>")},
		"favicon.svg":         {Data: []byte("<svg/>")},
		"assets/app-1234.js":  {Data: []byte("console.log(1)")},
		"assets/app-1234.css": {Data: []byte("body{}")},
	})
	if err != nil {
		t.Fatal(err)
	}
	return spa
}

func get(spa http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	spa.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestSPA_ServesAsset(t *testing.T) {
	w := get(testSPA(t), "/assets/app-1234.js")
	if w.Code != http.StatusOK || w.Body.String() != "console.log(1)" {
		t.Errorf("asset = %d %q", w.Code, w.Body.String())
	}
}

func TestSPA_RootServesIndex(t *testing.T) {
	w := get(testSPA(t), "/")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "app") {
		t.Errorf("root = %d %q", w.Code, w.Body.String())
	}
}

func TestSPA_UnknownPathFallsBack(t *testing.T) {
	for _, p := range []string{"/admin/edit/my-post", "/posts/hello", "/assets"} {
		w := get(testSPA(t), p)
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "<html>app</html>") {
			t.Errorf("%s = %d %q, want index.html", p, w.Code, w.Body.String())
		}
	}
}

func TestSPA_FaviconRedirect(t *testing.T) {
	w := get(testSPA(t), "/favicon.ico")
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/favicon.svg" {
		t.Errorf("favicon = %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestSPA_TraversalStaysInside(t *testing.T) {
	w := get(testSPA(t), "/../../etc/passwd")
	if strings.Contains(w.Body.String(), "root:") {
		t.Errorf("traversal escaped the build dir: %q", w.Body.String())
	}
}

func TestSPA_RejectsWrites(t *testing.T) {
	w := httptest.NewRecorder()
	testSPA(t).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST = %d, want 405", w.Code)
	}
}

func TestNewSPA_RequiresIndex(t *testing.T) {
	if _, err := NewSPA(fstest.MapFS{"a.js": {Data: []byte("x")}}); err == nil {
		t.Error("expected error without index.html")
	}
}

func TestNewSPADir(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewSPADir(dir); err == nil {
		t.Error("expected error for dir without index.html")
	}
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	spa, err := NewSPADir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if w := get(spa, "/anything"); w.Body.String() != "hi" {
		t.Errorf("body = %q", w.Body.String())
	}
	if _, err := NewSPADir(filepath.Join(dir, "index.html")); err == nil {
		t.Error("expected error for a file path")
	}
}
