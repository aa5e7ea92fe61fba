package etagserve

import (
	"errors"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

// Handler returns an http.Handler that serves files under the given root
// directory with ETag validation. The request URL path is cleaned and joined
// onto the root, so relative segments cannot escape it. Conditional requests
// are driven by the If-None-Match header; a matching validator yields an
// empty 304 response.
//
// Error translation: unresolvable paths map to 404, paths that resolve to
// something other than a regular file (directories, devices) map to 400, and
// any filesystem failure maps to 500.
func (a *Responder) Handler(root string) http.Handler {
	absRoot, err := filepath.EvalSymlinks(root)
	if err == nil {
		absRoot, err = filepath.Abs(absRoot)
	}
	if err != nil {
		panic(err)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		urlPath := path.Clean("/" + r.URL.Path)
		filePath := filepath.Join(absRoot, filepath.FromSlash(urlPath))

		res, err := a.Respond(filePath, validatorFrom(r.Header.Get("If-None-Match")))
		if err != nil {
			a.sendError(w, urlPath, err)
			return
		}

		a.log.Debug().
			Str("path", urlPath).
			Str("etag", res.ETag).
			Bool("notModified", res.NotModified).
			Msg("Serving file")

		if res.NotModified {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		defer res.Body.Close()
		w.Header().Set("ETag", `"`+res.ETag+`"`)
		if res.ContentType != "" {
			w.Header().Set("Content-Type", res.ContentType)
		}
		if res.ContentLength >= 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(res.ContentLength, 10))
		}
		w.WriteHeader(http.StatusOK)
		bytesWritten, err := io.CopyBuffer(w, res.Body, make([]byte, ChunkSize))
		if err != nil {
			a.log.Error().Err(err).Str("path", urlPath).Msg("Could not write response body to client")
			return
		}
		a.log.Trace().Msgf("Wrote body (%d bytes)", bytesWritten)
	})
}

func (a *Responder) sendError(w http.ResponseWriter, urlPath string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, ErrNotRegularFile):
		http.Error(w, "Not a file", http.StatusBadRequest)
	default:
		a.log.Error().Err(err).Str("path", urlPath).Msg("Could not produce response")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// validatorFrom extracts the first entity-tag from an If-None-Match header
// value, stripping the weak prefix and surrounding quotes. The responder
// compares bare tags; quoting is purely a wire concern.
func validatorFrom(header string) string {
	validator := strings.TrimSpace(header)
	if i := strings.IndexByte(validator, ','); i != -1 {
		validator = strings.TrimSpace(validator[:i])
	}
	validator = strings.TrimPrefix(validator, "W/")
	return strings.Trim(validator, `"`)
}
