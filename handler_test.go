package etagserve

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/etagserve/etagserve/fingerprint"

	"github.com/go-chi/chi/v5"
)

func newTestServer(t *testing.T, root string) http.Handler {
	t.Helper()
	handler := New(Config{Store: fingerprint.NewMemStore()}).Handler(root)
	r := chi.NewRouter()
	r.Get("/*", handler.ServeHTTP)
	return r
}

func get(handler http.Handler, target string, ifNoneMatch string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", target, nil)
	if ifNoneMatch != "" {
		req.Header.Set("If-None-Match", ifNoneMatch)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestServeThenNotModified(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "hello")
	handler := newTestServer(t, root)

	rec := get(handler, "/a.txt", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Status code is %d", rec.Code)
	}
	if body := rec.Body.String(); body != "hello" {
		t.Fatalf("Body is %q", body)
	}
	etag := rec.Header().Get("ETag")
	if len(etag) != 18 || etag[0] != '"' || etag[17] != '"' {
		t.Fatalf("ETag header is %q", etag)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/plain" {
		t.Fatalf("Content-Type is %q", ct)
	}
	if cl := rec.Header().Get("Content-Length"); cl != "5" {
		t.Fatalf("Content-Length is %q", cl)
	}

	rec = get(handler, "/a.txt", etag)
	if rec.Code != http.StatusNotModified {
		t.Fatalf("Status code is %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("Body is %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "" {
		t.Fatalf("Not-modified response has Content-Type %q", ct)
	}
	if cl := rec.Header().Get("Content-Length"); cl != "" {
		t.Fatalf("Not-modified response has Content-Length %q", cl)
	}
}

func TestValidatorMismatchServesBody(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "hello")
	handler := newTestServer(t, root)

	rec := get(handler, "/a.txt", `"FFFFFFFFFFFFFFFF"`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status code is %d", rec.Code)
	}
	if body := rec.Body.String(); body != "hello" {
		t.Fatalf("Body is %q", body)
	}
}

func TestWeakValidatorMatches(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "hello")
	handler := newTestServer(t, root)

	etag := get(handler, "/a.txt", "").Header().Get("ETag")

	rec := get(handler, "/a.txt", "W/"+etag)
	if rec.Code != http.StatusNotModified {
		t.Fatalf("Status code is %d", rec.Code)
	}
}

func TestValidatorListUsesFirstElement(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "hello")
	handler := newTestServer(t, root)

	etag := get(handler, "/a.txt", "").Header().Get("ETag")

	rec := get(handler, "/a.txt", etag+`, "FFFFFFFFFFFFFFFF"`)
	if rec.Code != http.StatusNotModified {
		t.Fatalf("Status code is %d", rec.Code)
	}
	rec = get(handler, "/a.txt", `"FFFFFFFFFFFFFFFF", `+etag)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status code is %d", rec.Code)
	}
}

func TestUnknownExtensionHasNoContentType(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "data.unknownext", "payload")
	handler := newTestServer(t, root)

	rec := get(handler, "/data.unknownext", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Status code is %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "" {
		t.Fatalf("Content-Type is %q", ct)
	}
}

func TestMissingFileIs404(t *testing.T) {
	handler := newTestServer(t, t.TempDir())

	rec := get(handler, "/nope.txt", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Status code is %d", rec.Code)
	}
}

func TestDirectoryIs400(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	handler := newTestServer(t, root)

	rec := get(handler, "/sub", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Status code is %d", rec.Code)
	}
}

func TestRelativeSegmentsCannotEscapeRoot(t *testing.T) {
	parent := t.TempDir()
	writeFile(t, parent, "secret.txt", "secret")
	root := filepath.Join(parent, "public")
	if err := os.Mkdir(root, 0755); err != nil {
		t.Fatal(err)
	}
	// serve directly, without a router that would normalize the path first
	handler := New(Config{Store: fingerprint.NewMemStore()}).Handler(root)

	req := httptest.NewRequest("GET", "/", nil)
	req.URL.Path = "/../secret.txt"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Status code is %d", rec.Code)
	}
}
