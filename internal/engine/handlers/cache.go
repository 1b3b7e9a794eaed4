// Package handlers owns loaded handlers: the handler cache, the negative cache, the
// module cache and the loader that fills them.
package handlers

import (
	"slices"
	"sync"

	"go.trai.ch/fsroute/internal/core/domain"
)

// Cache maps resource ids to loaded handlers and keeps a disjoint set of ids known to
// be absent. It is safe for concurrent use.
type Cache struct {
	mu       sync.RWMutex
	entries  map[string]*domain.Handler
	negative map[string]struct{}
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{
		entries:  make(map[string]*domain.Handler),
		negative: make(map[string]struct{}),
	}
}

// Get returns the handler loaded for id.
func (c *Cache) Get(id string) (*domain.Handler, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.entries[id]
	return h, ok
}

// Put publishes h and clears any negative entry for its id.
func (c *Cache) Put(h *domain.Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.negative, h.ID)
	c.entries[h.ID] = h
}

// Remove unpublishes the handler for id and returns it.
func (c *Cache) Remove(id string) (*domain.Handler, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.entries[id]
	delete(c.entries, id)
	return h, ok
}

// IsAbsent reports whether id is negative-cached.
func (c *Cache) IsAbsent(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.negative[id]
	return ok
}

// MarkAbsent negative-caches id unless a handler is loaded for it.
func (c *Cache) MarkAbsent(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[id]; ok {
		return
	}
	c.negative[id] = struct{}{}
}

// Forget drops id from the negative cache.
func (c *Cache) Forget(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.negative, id)
}

// IDs returns the ids of every loaded handler, sorted.
func (c *Cache) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of loaded handlers.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
