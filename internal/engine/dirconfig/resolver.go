// Package dirconfig merges global and per-directory configuration.
package dirconfig

import (
	"iter"
	"path"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/fsroute/internal/core/domain"
	"go.trai.ch/fsroute/internal/engine/pattern"
)

// Resolver holds the explicitly loaded directory configs of one router and resolves
// the effective configuration of any root-relative path. It is safe for concurrent use.
type Resolver struct {
	defaults domain.Settings

	mu       sync.RWMutex
	explicit map[string]*domain.DirectoryConfig
}

// NewResolver creates a Resolver falling back to the global shared settings.
func NewResolver(defaults domain.Settings) *Resolver {
	return &Resolver{
		defaults: defaults,
		explicit: make(map[string]*domain.DirectoryConfig),
	}
}

// Clean converts rel to the key form used by the resolver: slash-separated, no leading
// or trailing separator, and clamped inside the root. The root itself is "".
func Clean(rel string) string {
	rel = path.Clean("/" + pattern.Normalize(rel))
	return strings.TrimPrefix(rel, "/")
}

// Set records cfg as the explicit config of dir.
func (r *Resolver) Set(dir string, cfg *domain.DirectoryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.explicit[Clean(dir)] = cfg
}

// Delete forgets the explicit config of dir. It reports whether one was present.
func (r *Resolver) Delete(dir string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	dir = Clean(dir)
	_, ok := r.explicit[dir]
	delete(r.explicit, dir)
	return ok
}

// Explicit returns the explicit config of dir, if any.
func (r *Resolver) Explicit(dir string) (*domain.DirectoryConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.explicit[Clean(dir)]
	return cfg, ok
}

// Dirs returns every directory holding an explicit config, sorted.
func (r *Resolver) Dirs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dirs := make([]string, 0, len(r.explicit))
	for dir := range r.explicit {
		dirs = append(dirs, dir)
	}
	slices.Sort(dirs)
	return dirs
}

// Resolve returns the effective configuration for rel, which may name a file or a
// directory. The result is recomputed on every call.
//
// The walk starts at rel and moves towards the root. An explicit config applies to
// its own directory, and to deeper paths only while it propagates: a non-propagating
// config cuts the chain for everything beneath it. The nearest applying config wins
// per field. A config with inheritFromParent=false ends the walk. Unset fields fall
// back to the global settings, then to the hard defaults.
func (r *Resolver) Resolve(rel string) domain.Effective {
	rel = Clean(rel)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var merged domain.Settings
	for dir := range ancestors(rel) {
		cfg, ok := r.explicit[dir]
		if !ok {
			continue
		}
		if dir != rel && !cfg.Propagates() {
			break
		}
		merged = merged.Fill(cfg.Settings)
		if !cfg.Inherits() {
			break
		}
	}
	return merged.Fill(r.defaults).Effective()
}

// IsExec reports whether rel is an exec candidate under its effective configuration.
func (r *Resolver) IsExec(rel string) bool {
	return pattern.Match(r.Resolve(rel).Exec, rel)
}

// ancestors yields rel and each of its parent directories, ending with the root "".
func ancestors(rel string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			if !yield(rel) || rel == "" {
				return
			}
			rel = path.Dir(rel)
			if rel == "." {
				rel = ""
			}
		}
	}
}
