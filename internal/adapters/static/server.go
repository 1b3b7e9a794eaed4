// Package static serves file content for non-exec candidates.
package static

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"sync"
	"time"

	"go.trai.ch/fsroute/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.StaticServer = (*Server)(nil)

// Server serves regular files with http.ServeContent. Strong ETags are derived from
// the file content and cached until the file's size or modification time changes.
type Server struct {
	mu     sync.Mutex
	etags  map[string]etag
	exists func(string) bool
}

type etag struct {
	size    int64
	modTime time.Time
	value   string
}

// NewServer creates a Server.
func NewServer() *Server {
	s := &Server{etags: make(map[string]etag)}
	s.exists = s.Exists
	return s
}

// Exists reports whether path is a regular file.
func (s *Server) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Serve writes the file at path. It reports false without writing anything when
// path does not name a regular file.
func (s *Server) Serve(w http.ResponseWriter, r *http.Request, path string) (bool, error) {
	if !s.exists(path) {
		return false, nil
	}

	f, err := os.Open(path) //nolint:gosec // path is a candidate below the served root
	if errors.Is(err, fs.ErrNotExist) {
		// Removed since the check above.
		return false, nil
	}
	if err != nil {
		return false, zerr.With(zerr.Wrap(err, "open static file"), "path", path)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return false, zerr.With(zerr.Wrap(err, "stat static file"), "path", path)
	}

	tag, err := s.etag(f, path, info)
	if err != nil {
		return false, err
	}

	w.Header().Set("ETag", tag)
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return true, nil
}

func (s *Server) etag(f *os.File, path string, info os.FileInfo) (string, error) {
	s.mu.Lock()
	cached, ok := s.etags[path]
	s.mu.Unlock()
	if ok && cached.size == info.Size() && cached.modTime.Equal(info.ModTime()) {
		return cached.value, nil
	}

	sum, err := hashContent(f)
	if err != nil {
		return "", zerr.With(err, "path", path)
	}
	value := `"` + sum + `"`

	s.mu.Lock()
	s.etags[path] = etag{size: info.Size(), modTime: info.ModTime(), value: value}
	s.mu.Unlock()
	return value, nil
}

