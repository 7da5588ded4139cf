package internal

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/folio/internal/postservice"
	"github.com/starford/folio/internal/testutil"
)

func testHandler(t *testing.T, mode, distDir string) (http.Handler, *Config) {
	t.Helper()
	dir, store := testutil.TestStore(t)
	cfg := NewDefaultConfig()
	cfg.App.Mode = mode
	cfg.Posts.Dir = dir
	cfg.Auth.Token = "secret"
	cfg.Web.DistDir = distDir

	svc := postservice.NewService(store, postservice.WithLogger(testutil.DiscardLogger()))
	h, err := newHTTPHandler(cfg, svc, nil, testutil.DiscardLogger())
	if err != nil {
		t.Fatalf("newHTTPHandler: %v", err)
	}
	return h, cfg
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestHandler_Health(t *testing.T) {
	h, cfg := testHandler(t, ModeDevelopment, "")

	if w := serve(h, http.MethodGet, "/health/live"); w.Code != http.StatusOK {
		t.Errorf("live = %d", w.Code)
	}
	if w := serve(h, http.MethodGet, "/health/ready"); w.Code != http.StatusOK {
		t.Errorf("ready = %d", w.Code)
	}

	if err := os.RemoveAll(cfg.Posts.Dir); err != nil {
		t.Fatal(err)
	}
	if w := serve(h, http.MethodGet, "/health/ready"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("ready without dir = %d, want 503", w.Code)
	}
}

func TestHandler_APIMounted(t *testing.T) {
	h, _ := testHandler(t, ModeDevelopment, "")

	w := serve(h, http.MethodGet, "/api/posts")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"posts"`) {
		t.Errorf("list = %d %s", w.Code, w.Body.String())
	}
	if w := serve(h, http.MethodPost, "/api/posts"); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated create = %d, want 401", w.Code)
	}
}

func TestHandler_Frontend(t *testing.T) {
	dist := t.TempDir()
	if err := os.WriteFile(filepath.Join(dist, "index.html"), []byte("<html>spa</html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	h, _ := testHandler(t, ModeProduction, dist)

	if w := serve(h, http.MethodGet, "/admin"); w.Body.String() != "<html>spa</html>" {
		t.Errorf("client route = %d %q", w.Code, w.Body.String())
	}
	w := serve(h, http.MethodGet, "/api/unknown")
	if w.Code != http.StatusNotFound || strings.Contains(w.Body.String(), "spa") {
		t.Errorf("/api/unknown = %d %q, want JSON 404", w.Code, w.Body.String())
	}
}

func TestHandler_MissingDistDir(t *testing.T) {
	dir, store := testutil.TestStore(t)
	cfg := NewDefaultConfig()
	cfg.App.Mode = ModeProduction
	cfg.Posts.Dir = dir
	cfg.Web.DistDir = filepath.Join(dir, "no-dist")

	svc := postservice.NewService(store)
	if _, err := newHTTPHandler(cfg, svc, nil, testutil.DiscardLogger()); err == nil {
		t.Fatal("expected error for missing dist dir")
	}
}

func TestHandler_FrontendOnlyInProduction(t *testing.T) {
	dist := t.TempDir()
	if err := os.WriteFile(filepath.Join(dist, "index.html"), []byte("<html>spa</html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	h, _ := testHandler(t, ModeDevelopment, dist)

	w := serve(h, http.MethodGet, "/admin")
	if w.Code != http.StatusNotFound || strings.Contains(w.Body.String(), "spa") {
		t.Errorf("development /admin = %d %q, want 404", w.Code, w.Body.String())
	}

	// An unusable dist dir is not an error when it is not served.
	testHandler(t, ModeDevelopment, filepath.Join(dist, "missing"))
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := Run(t.Context()); err == nil {
		t.Fatal("expected error without config")
	}
}
