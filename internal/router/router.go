// Package router dispatches HTTP requests to filesystem handlers and static files and
// keeps its handler state consistent with the filesystem.
package router

import (
	"context"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"go.trai.ch/fsroute/internal/core/domain"
	"go.trai.ch/fsroute/internal/core/ports"
	"go.trai.ch/fsroute/internal/engine/dirconfig"
	"go.trai.ch/fsroute/internal/engine/handlers"
	"go.trai.ch/fsroute/internal/engine/reconcile"
	"go.trai.ch/zerr"
)

// ErrorHandler receives handler failures and use-after-destroy errors.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Options configures a Router.
type Options struct {
	Config   domain.GlobalConfig
	Runtimes []ports.Runtime
	Static   ports.StaticServer
	Configs  ports.DirectoryConfigLoader
	// Watcher enables hot reload. Without one the filesystem is read once at Start.
	Watcher ports.Watcher
	Logger  ports.Logger
	Tracer  ports.Tracer

	// Next serves requests no candidate satisfied. Defaults to http.NotFoundHandler.
	Next http.Handler
	// ErrorHandler defaults to a plain 500 response.
	ErrorHandler ErrorHandler
}

// Router is both the request dispatcher and the control plane of one served root.
type Router struct {
	cfg     domain.GlobalConfig
	static  ports.StaticServer
	watcher ports.Watcher
	logger  ports.Logger
	tracer  ports.Tracer
	next    http.Handler
	onError ErrorHandler

	lock      sync.Mutex
	queue     *reconcile.Queue
	resolver  *dirconfig.Resolver
	modules   *handlers.ModuleCache
	handlers  *handlers.Manager
	engine    *reconcile.Engine
	scheduler *reconcile.Scheduler

	started   atomic.Bool
	destroyed atomic.Bool
	watching  chan struct{}
}

// New creates a Router. Nothing is read from disk until Start.
func New(opts Options) *Router {
	rt := &Router{
		cfg:      opts.Config,
		static:   opts.Static,
		watcher:  opts.Watcher,
		logger:   opts.Logger,
		tracer:   opts.Tracer,
		next:     opts.Next,
		onError:  opts.ErrorHandler,
		queue:    reconcile.NewQueue(),
		resolver: dirconfig.NewResolver(opts.Config.Defaults),
		modules:  handlers.NewModuleCache(),
	}
	if rt.next == nil {
		rt.next = http.NotFoundHandler()
	}
	if rt.onError == nil {
		rt.onError = defaultErrorHandler
	}

	cache := handlers.NewCache()
	loader := handlers.NewLoader(cache, rt.modules, opts.Runtimes, rt.logger, rt.tracer, rt.cfg.ClearCacheOnChange)
	rt.handlers = handlers.NewManager(cache, loader, &rt.lock, rt.logger)
	rt.engine = reconcile.NewEngine(rt.cfg, reconcile.Deps{
		Lock:     &rt.lock,
		Queue:    rt.queue,
		Resolver: rt.resolver,
		Configs:  opts.Configs,
		Handlers: rt.handlers,
		Logger:   rt.logger,
		Tracer:   rt.tracer,
	})
	rt.scheduler = reconcile.NewScheduler(rt.queue, rt.cfg.DebounceWait, func() {
		if !rt.destroyed.Load() {
			rt.engine.Run(context.Background())
		}
	})
	return rt
}

func defaultErrorHandler(w http.ResponseWriter, _ *http.Request, _ error) {
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Start queues every file below the root, runs the first reconciliation pass and
// starts watching. The initialized gate is open when Start returns without error.
func (rt *Router) Start(ctx context.Context) error {
	if rt.destroyed.Load() {
		return zerr.Wrap(domain.ErrRouterDestroyed, "start router")
	}
	if !rt.started.CompareAndSwap(false, true) {
		return zerr.New("router already started")
	}

	info, err := os.Stat(rt.cfg.Root)
	if err != nil || !info.IsDir() {
		return zerr.With(zerr.Wrap(domain.ErrRootNotDirectory, "start router"), "root", rt.cfg.Root)
	}

	if err := rt.queueTree(); err != nil {
		return err
	}
	rt.engine.Run(ctx)

	if rt.watcher == nil {
		return nil
	}
	if err := rt.watcher.Start(ctx, rt.cfg.WatchRoots()...); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrWatcherFailed, err.Error()), "root", rt.cfg.Root)
	}
	rt.watching = make(chan struct{})
	go rt.consume()
	return nil
}

// queueTree records every file below the root for the first pass.
func (rt *Router) queueTree() error {
	err := filepath.WalkDir(rt.cfg.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			rt.logger.Warn("Skipping " + path + ": " + err.Error())
			return nil
		}
		if d.IsDir() {
			if path != rt.cfg.Root && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		rt.queue.Record(path, true)
		return nil
	})
	if err != nil {
		return zerr.With(zerr.Wrap(err, "walk root"), "root", rt.cfg.Root)
	}
	return nil
}

func skipDir(name string) bool {
	return name == ".git" || name == ".jj"
}

func (rt *Router) consume() {
	defer close(rt.watching)
	for change := range rt.watcher.Events() {
		rt.onChange(change)
	}
}

// onChange feeds root changes to the scheduler. Changes outside the root come from
// extra watch paths: they are never served but invalidate loaded code.
func (rt *Router) onChange(change domain.Change) {
	rt.modules.MarkDirty()
	if _, inRoot := rt.relative(change.Path); inRoot {
		rt.scheduler.OnEvent(change)
		return
	}
	rt.modules.Evict(change.Path)
	rt.logger.Debug("Extra watch path changed: " + change.Path)
}

// Reconcile runs a pass over the pending changes immediately.
func (rt *Router) Reconcile(ctx context.Context) error {
	if rt.destroyed.Load() {
		return zerr.Wrap(domain.ErrRouterDestroyed, "reconcile")
	}
	rt.engine.Run(ctx)
	return nil
}

// WhenInitialized is closed once the first reconciliation pass has completed.
func (rt *Router) WhenInitialized() <-chan struct{} {
	return rt.engine.Initialized()
}

// Pending returns the number of changes waiting for the next pass.
func (rt *Router) Pending() int {
	return rt.queue.Len()
}

// Handlers returns the loaded handlers, sorted by id.
func (rt *Router) Handlers() []*domain.Handler {
	ids := rt.handlers.Cache().IDs()
	loaded := make([]*domain.Handler, 0, len(ids))
	for _, id := range ids {
		if h, ok := rt.handlers.Get(id); ok {
			loaded = append(loaded, h)
		}
	}
	return loaded
}

// Destroy stops watching, waits for the watcher to finish and unloads every handler.
// Every later dispatch, lookup or Destroy fails with domain.ErrRouterDestroyed.
func (rt *Router) Destroy(ctx context.Context) error {
	if !rt.destroyed.CompareAndSwap(false, true) {
		return zerr.Wrap(domain.ErrRouterDestroyed, "destroy router")
	}

	rt.scheduler.Stop()

	var stopErr error
	if rt.watcher != nil {
		stopErr = rt.watcher.Stop()
		if rt.watching != nil {
			<-rt.watching
		}
	}

	rt.lock.Lock()
	defer rt.lock.Unlock()
	rt.handlers.UnloadAll(ctx)

	if stopErr != nil {
		return zerr.Wrap(stopErr, "stop watcher")
	}
	return nil
}

// relative converts an absolute path to a slash-separated root-relative path.
func (rt *Router) relative(path string) (string, bool) {
	rel, err := filepath.Rel(rt.cfg.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	if rel == "." {
		rel = ""
	}
	return filepath.ToSlash(rel), true
}

// idFor returns the resource id of a candidate.
func (rt *Router) idFor(c domain.Candidate) string {
	return filepath.Join(rt.cfg.Root, filepath.FromSlash(c.Rel()))
}
