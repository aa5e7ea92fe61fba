package etagserve

import "testing"

func TestContentTypeFor(t *testing.T) {
	cases := map[string]string{
		"/srv/index.html":   "text/html",
		"/srv/INDEX.HTML":   "text/html",
		"/srv/style.css":    "text/css",
		"/srv/app.wasm":     "application/wasm",
		"/srv/photo.JPG":    "image/jpeg",
		"/srv/noextension":  "",
		"/srv/data.unknown": "",
		"/srv/trailing.":    "",
	}
	for path, want := range cases {
		if got := contentTypeFor(path); got != want {
			t.Fatalf("Content type for %s is %q, expected %q", path, got, want)
		}
	}
}
