package ports

import "net/http"

// StaticServer serves file content.
//
//go:generate mockgen -source=static.go -destination=mocks/mock_static.go -package=mocks
type StaticServer interface {
	// Serve writes the file at path to w. It reports false, without writing, when
	// path is not a regular file.
	Serve(w http.ResponseWriter, r *http.Request, path string) (bool, error)
	// Exists reports whether path is a regular file that Serve would serve.
	Exists(path string) bool
}
