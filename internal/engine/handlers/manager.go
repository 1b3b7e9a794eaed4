package handlers

import (
	"context"
	"os"
	"sync"

	"go.trai.ch/fsroute/internal/core/domain"
	"go.trai.ch/fsroute/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// Manager combines the handler cache with the loader. First loads and every cache
// mutation made through it happen under the router lock.
type Manager struct {
	cache  *Cache
	loader *Loader
	lock   sync.Locker
	logger ports.Logger
	exists func(id string) bool
	probes singleflight.Group
}

// NewManager creates a Manager. lock is the router lock shared with reconciliation.
func NewManager(cache *Cache, loader *Loader, lock sync.Locker, logger ports.Logger) *Manager {
	return &Manager{
		cache:  cache,
		loader: loader,
		lock:   lock,
		logger: logger,
		exists: isRegularFile,
	}
}

// Cache returns the underlying handler cache.
func (m *Manager) Cache() *Cache {
	return m.cache
}

// Get returns the loaded handler for id without loading it.
func (m *Manager) Get(id string) (*domain.Handler, bool) {
	return m.cache.Get(id)
}

// GetOrLoad returns the handler for id, loading it on first use. Missing resources
// are negative-cached and reported as domain.ErrResourceNotFound.
func (m *Manager) GetOrLoad(ctx context.Context, id string, strategy domain.ImportStrategy) (*domain.Handler, error) {
	if h, ok := m.cache.Get(id); ok {
		return h, nil
	}
	if m.cache.IsAbsent(id) {
		return nil, notFound(id)
	}

	found, _, _ := m.probes.Do(id, func() (any, error) {
		return m.exists(id), nil
	})
	if !found.(bool) {
		m.lock.Lock()
		defer m.lock.Unlock()
		// Re-checked under the lock so a concurrent reconciliation cannot be overtaken.
		if !m.exists(id) {
			m.cache.MarkAbsent(id)
		}
		return nil, notFound(id)
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	if h, ok := m.cache.Get(id); ok {
		return h, nil
	}
	return m.loader.Load(ctx, id, strategy)
}

// Unload removes the handler for id and fires its onDestroy hook. Hook failures are
// logged and do not stop the unload. The caller must hold the router lock.
func (m *Manager) Unload(ctx context.Context, id string) bool {
	h, ok := m.cache.Remove(id)
	if !ok {
		return false
	}
	if h.OnDestroy != nil {
		if err := runHook(ctx, h.OnDestroy); err != nil {
			m.logger.Error(zerr.With(zerr.With(cause(domain.ErrHookFailed, err), "id", id), "hook", domain.HookDestroy))
		}
	}
	m.logger.Info("Removed handler " + id)
	return true
}

// Update drops any cached state for id and, when reload is set, loads it again.
// Load failures are logged; the handler then stays absent until requested.
// The caller must hold the router lock.
func (m *Manager) Update(ctx context.Context, id string, reload bool, strategy domain.ImportStrategy) {
	m.cache.Forget(id)
	m.Unload(ctx, id)
	if !reload {
		return
	}
	if _, err := m.loader.Load(ctx, id, strategy); err != nil {
		m.logger.Error(err)
		return
	}
	m.logger.Info("Reloaded handler " + id)
}

// UnloadAll unloads every cached handler. The caller must hold the router lock.
func (m *Manager) UnloadAll(ctx context.Context) {
	for _, id := range m.cache.IDs() {
		m.Unload(ctx, id)
	}
}

func notFound(id string) error {
	return zerr.With(zerr.Wrap(domain.ErrResourceNotFound, "get handler"), "id", id)
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
