// Package reconcile applies batched filesystem changes to directory configs and
// loaded handlers.
package reconcile

import (
	"slices"
	"strings"
	"sync"

	"go.trai.ch/fsroute/internal/core/domain"
)

// Queue accumulates pending changes between reconciliation passes.
type Queue struct {
	mu      sync.Mutex
	pending map[string]bool
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{pending: make(map[string]bool)}
}

// Record notes a change for id. A pending reload request is never downgraded by a
// later removal of the same id within one batch.
func (q *Queue) Record(id string, shouldReload bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending[id] = q.pending[id] || shouldReload
}

// Drain returns every pending change, sorted by id, and clears the queue.
func (q *Queue) Drain() []domain.PendingChange {
	q.mu.Lock()
	pending := q.pending
	q.pending = make(map[string]bool)
	q.mu.Unlock()

	changes := make([]domain.PendingChange, 0, len(pending))
	for id, reload := range pending {
		changes = append(changes, domain.PendingChange{ID: id, ShouldReload: reload})
	}
	slices.SortFunc(changes, func(a, b domain.PendingChange) int {
		return strings.Compare(a.ID, b.ID)
	})
	return changes
}

// Len returns the number of pending changes.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
