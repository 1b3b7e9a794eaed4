package handlers

import (
	"strconv"
	"sync"
	"sync/atomic"

	"go.trai.ch/fsroute/internal/core/ports"
)

// ModuleCache holds evaluated modules keyed by resource id. Eviction forces the next
// load of that key to re-read from source.
//
// Keys produced by NonceKey are never evicted individually: every asynchronous load
// under a fresh key leaves its module behind until the whole cache is evicted.
type ModuleCache struct {
	mu      sync.RWMutex
	modules map[string]ports.Module

	dirty atomic.Bool
	nonce atomic.Uint64
}

// NewModuleCache creates an empty ModuleCache.
func NewModuleCache() *ModuleCache {
	return &ModuleCache{modules: make(map[string]ports.Module)}
}

// Get returns the module cached under key.
func (m *ModuleCache) Get(key string) (ports.Module, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mod, ok := m.modules[key]
	return mod, ok
}

// Put caches mod under key.
func (m *ModuleCache) Put(key string, mod ports.Module) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modules[key] = mod
}

// Evict drops the module cached under key.
func (m *ModuleCache) Evict(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.modules, key)
}

// EvictAll drops every cached module.
func (m *ModuleCache) EvictAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.modules)
}

// Len returns the number of cached modules.
func (m *ModuleCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.modules)
}

// MarkDirty records that some watched source changed since the last full eviction.
func (m *ModuleCache) MarkDirty() {
	m.dirty.Store(true)
}

// TakeDirty clears the dirty flag and reports whether it was set.
func (m *ModuleCache) TakeDirty() bool {
	return m.dirty.CompareAndSwap(true, false)
}

// NonceKey returns a key for id that no earlier call returned.
func (m *ModuleCache) NonceKey(id string) string {
	return id + "?v=" + strconv.FormatUint(m.nonce.Add(1), 10)
}
