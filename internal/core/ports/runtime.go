package ports

import (
	"context"

	"go.trai.ch/fsroute/internal/core/domain"
)

//go:generate mockgen -source=runtime.go -destination=mocks/mock_runtime.go -package=mocks

// Runtime turns a resource identifier into an executable handler module.
type Runtime interface {
	// Name identifies the runtime in logs and spans.
	Name() string
	// Supports reports whether the runtime can load the resource.
	Supports(id string) bool
	// Load reads and evaluates the resource from source. It never consults a cache.
	Load(ctx context.Context, id string) (Module, error)
}

// Module is an evaluated handler resource and its export surface.
type Module interface {
	// Handler returns the request entry point, or nil if the module exports none.
	Handler() domain.HandlerFunc
	// Hook returns the named lifecycle hook if the module defines it.
	Hook(name string) (domain.HookFunc, bool)
}
