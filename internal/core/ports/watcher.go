package ports

import (
	"context"
	"iter"

	"go.trai.ch/fsroute/internal/core/domain"
)

// Watcher defines the interface for watching file system changes.
//
//go:generate mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks
type Watcher interface {
	// Start begins watching every root recursively.
	// A root that cannot be watched is reported to the logger and skipped.
	Start(ctx context.Context, roots ...string) error
	// Stop stops the watcher and waits for its event loop to exit.
	Stop() error
	// Events returns an iterator of file changes. It ends once the watcher stops.
	Events() iter.Seq[domain.Change]
}
