package etagserve

import (
	"errors"
	"fmt"
	"hash/crc64"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/etagserve/etagserve/fingerprint"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ChunkSize is the buffer size used both for hashing file contents and for
// writing response bodies. It is the only tuning knob of the package.
const ChunkSize = 4096

var (
	// ErrNotFound is returned when the requested path cannot be resolved.
	ErrNotFound = errors.New("file not found")
	// ErrNotRegularFile is returned when the resolved path exists
	// but is not a regular file (e.g. a directory).
	ErrNotRegularFile = errors.New("not a regular file")
)

var crcTable = crc64.MakeTable(crc64.ECMA)

type Config struct {
	// Storage for computed fingerprints.
	// The caller constructs the store once and must keep it alive for as
	// long as the responder is in use.
	Store fingerprint.Store
	// Logger to use. The global zerolog logger is used if nil.
	Logger *zerolog.Logger
}

// Responder produces ETag-validated responses for static files.
// It owns no files itself; every request names the file to serve.
type Responder struct {
	store fingerprint.Store
	log   zerolog.Logger
}

// New initializes a responder with the given fingerprint store.
func New(config Config) *Responder {
	logger := log.Logger
	if config.Logger != nil {
		logger = *config.Logger
	}
	return &Responder{
		store: config.Store,
		log:   logger,
	}
}

// Response is the outcome of validating one file request.
// It has exactly one of two shapes: a not-modified response carries only the
// fingerprint, a full response additionally carries content metadata and an
// open body. The body is a one-shot stream; the consumer must close it.
type Response struct {
	NotModified bool
	// Path is the canonical path of the file, usable as a cache key.
	Path string
	// ETag is the content fingerprint, as bare uppercase hex.
	ETag string
	// ContentType is empty if the file extension is unknown or missing.
	ContentType string
	// ContentLength is -1 when not computed (not-modified responses).
	ContentLength int64
	Body          io.ReadCloser
}

// Respond resolves the given path, obtains its content fingerprint (from the
// store, or by hashing the file on first access), and compares it against the
// client-supplied validator. An empty validator never matches.
//
// Note that the fingerprint is computed at most once per path for the
// lifetime of the store: if the file is modified in place afterwards, the new
// bytes are served under the old validator.
func (a *Responder) Respond(path string, validator string) (*Response, error) {
	canonical, err := filepath.EvalSymlinks(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	canonical, err = filepath.Abs(canonical)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	info, err := os.Stat(canonical)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegularFile, canonical)
	}

	etag, err := a.store.GetOrCompute(canonical, func() (string, error) {
		a.log.Trace().Str("path", canonical).Msg("Computing fingerprint")
		return Fingerprint(canonical)
	})
	if err != nil {
		return nil, err
	}

	if validator != "" && validator == etag {
		// no metadata lookups here: size and type are only needed
		// when a body is sent
		return &Response{
			NotModified:   true,
			Path:          canonical,
			ETag:          etag,
			ContentLength: -1,
		}, nil
	}

	// size is queried fresh on every full response, it is not part of
	// the cached fingerprint entry
	info, err = os.Stat(canonical)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	body, err := os.Open(canonical)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	return &Response{
		Path:          canonical,
		ETag:          etag,
		ContentType:   contentTypeFor(canonical),
		ContentLength: info.Size(),
		Body:          body,
	}, nil
}

// Fingerprint reads the file at the given path in ChunkSize chunks through a
// CRC-64 (ECMA) accumulator and returns the checksum as 16 uppercase hex
// digits. The whole file is never held in memory. A zero-byte file yields the
// checksum of empty input, not an error.
func Fingerprint(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open for fingerprint: %w", err)
	}
	defer file.Close()
	digest := crc64.New(crcTable)
	if _, err := io.CopyBuffer(digest, file, make([]byte, ChunkSize)); err != nil {
		return "", fmt.Errorf("read for fingerprint: %w", err)
	}
	return fmt.Sprintf("%016X", digest.Sum64()), nil
}
