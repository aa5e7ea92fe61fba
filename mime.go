package etagserve

import (
	"path/filepath"
	"strings"
)

// mimeTypes maps lowercase file extensions (without the dot) to content
// types. The table is fixed at compile time so a given file always gets the
// same Content-Type header on every host, independent of any OS mime
// registry. Extensions not listed here simply get no Content-Type header.
var mimeTypes = map[string]string{
	"avif":  "image/avif",
	"bin":   "application/octet-stream",
	"css":   "text/css",
	"csv":   "text/csv",
	"gif":   "image/gif",
	"gz":    "application/gzip",
	"htm":   "text/html",
	"html":  "text/html",
	"ico":   "image/x-icon",
	"jpeg":  "image/jpeg",
	"jpg":   "image/jpeg",
	"js":    "application/javascript",
	"json":  "application/json",
	"map":   "application/json",
	"md":    "text/markdown",
	"mjs":   "application/javascript",
	"mp3":   "audio/mpeg",
	"mp4":   "video/mp4",
	"otf":   "font/otf",
	"pdf":   "application/pdf",
	"png":   "image/png",
	"svg":   "image/svg+xml",
	"tar":   "application/x-tar",
	"ttf":   "font/ttf",
	"txt":   "text/plain",
	"wasm":  "application/wasm",
	"webm":  "video/webm",
	"webp":  "image/webp",
	"woff":  "font/woff",
	"woff2": "font/woff2",
	"xml":   "text/xml",
	"zip":   "application/zip",
}

// contentTypeFor returns the content type for the given file path based on
// its extension (case-insensitive), or "" if the extension is unknown or
// missing.
func contentTypeFor(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return ""
	}
	return mimeTypes[strings.ToLower(ext[1:])]
}
