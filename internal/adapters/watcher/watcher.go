// Package watcher reports filesystem changes below the served root and the extra
// watch paths using fsnotify.
package watcher

import (
	"context"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/fsroute/internal/core/domain"
	"go.trai.ch/fsroute/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

// skipDirectories are never watched.
var skipDirectories = map[string]bool{
	".git": true,
	".jj":  true,
}

const eventChannelBuffer = 100

// Watcher implements ports.Watcher using fsnotify. Directories are watched
// recursively, including those created after Start.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	logger    ports.Logger
	events    chan domain.Change
	quit      chan struct{}
	done      chan struct{}
	started   atomic.Bool
	stopOnce  sync.Once
}

// NewWatcher creates a new file system watcher.
func NewWatcher(logger ports.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.Wrap(domain.ErrWatcherFailed, err.Error())
	}
	return &Watcher{
		fsWatcher: fw,
		logger:    logger,
		events:    make(chan domain.Change, eventChannelBuffer),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching every root and starts the event loop. A root may be a file.
func (w *Watcher) Start(ctx context.Context, roots ...string) error {
	if !w.started.CompareAndSwap(false, true) {
		return zerr.Wrap(domain.ErrWatcherFailed, "watcher already started")
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			w.logger.Error(zerr.With(zerr.Wrap(domain.ErrWatcherFailed, err.Error()), "path", root))
			continue
		}
		if !info.IsDir() {
			w.add(root)
			continue
		}
		for dir := range directories(root) {
			w.add(dir)
		}
	}

	go w.processEvents(ctx)
	return nil
}

// Stop closes the watcher and waits for the event loop to exit. Stopping a watcher
// that was never started releases it and ends Events immediately.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.quit)
		err = w.fsWatcher.Close()
		if w.started.CompareAndSwap(false, true) {
			close(w.events)
			close(w.done)
		}
	})
	<-w.done
	return err
}

// Events returns an iterator of changes. It ends once the event loop has exited.
func (w *Watcher) Events() iter.Seq[domain.Change] {
	return func(yield func(domain.Change) bool) {
		for change := range w.events {
			if !yield(change) {
				return
			}
		}
	}
}

func (w *Watcher) add(path string) {
	if err := w.fsWatcher.Add(path); err != nil {
		w.logger.Error(zerr.With(zerr.Wrap(domain.ErrWatcherFailed, err.Error()), "path", path))
	}
}

// directories yields root and every directory below it that is not skipped.
func directories(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // unreadable directories are skipped
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && skipDirectories[d.Name()] {
				return fs.SkipDir
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// files yields every regular file below root, skipping the same directories.
func files(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // unreadable directories are skipped
			}
			if d.IsDir() {
				if path != root && skipDirectories[d.Name()] {
					return fs.SkipDir
				}
				return nil
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.done)
	defer close(w.events)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.quit:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.handle(ctx, event) {
				return
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error(zerr.Wrap(err, "watcher: file system error"))
		}
	}
}

// handle emits the change for event. A created directory is watched and every file
// already inside it is reported, since its own events predate the watch.
func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) bool {
	change, ok := convertEvent(event)
	if !ok {
		return true
	}

	if change.Kind == domain.ChangeAdd {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if skipDirectories[info.Name()] {
				return true
			}
			for dir := range directories(event.Name) {
				w.add(dir)
			}
			for file := range files(event.Name) {
				if !w.emit(ctx, domain.Change{Kind: domain.ChangeAdd, Path: file}) {
					return false
				}
			}
			return true
		}
	}

	return w.emit(ctx, change)
}

func (w *Watcher) emit(ctx context.Context, change domain.Change) bool {
	select {
	case w.events <- change:
		return true
	case <-w.quit:
		return false
	case <-ctx.Done():
		return false
	}
}

func convertEvent(event fsnotify.Event) (domain.Change, bool) {
	switch {
	case event.Has(fsnotify.Create):
		return domain.Change{Kind: domain.ChangeAdd, Path: event.Name}, true
	case event.Has(fsnotify.Write):
		return domain.Change{Kind: domain.ChangeModify, Path: event.Name}, true
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return domain.Change{Kind: domain.ChangeRemove, Path: event.Name}, true
	default:
		return domain.Change{}, false
	}
}
