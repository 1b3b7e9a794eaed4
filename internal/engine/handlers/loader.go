package handlers

import (
	"context"
	"fmt"

	"go.trai.ch/fsroute/internal/core/domain"
	"go.trai.ch/fsroute/internal/core/ports"
	"go.trai.ch/zerr"
)

// Loader turns resource ids into published handlers.
// Load must only be called while holding the router lock.
type Loader struct {
	runtimes      []ports.Runtime
	modules       *ModuleCache
	cache         *Cache
	logger        ports.Logger
	tracer        ports.Tracer
	clearOnChange bool
}

// NewLoader creates a Loader publishing into cache. When clearOnChange is set, a dirty
// module cache is evicted entirely before the next load instead of only the loaded id.
func NewLoader(
	cache *Cache,
	modules *ModuleCache,
	runtimes []ports.Runtime,
	logger ports.Logger,
	tracer ports.Tracer,
	clearOnChange bool,
) *Loader {
	return &Loader{
		runtimes:      runtimes,
		modules:       modules,
		cache:         cache,
		logger:        logger,
		tracer:        tracer,
		clearOnChange: clearOnChange,
	}
}

// Load evaluates id, runs its onCreate hook and publishes the handler.
// Nothing is published when any step fails.
func (l *Loader) Load(ctx context.Context, id string, strategy domain.ImportStrategy) (*domain.Handler, error) {
	ctx, span := l.tracer.Start(ctx, "handler.load")
	defer span.End()
	span.SetAttribute("handler.id", id)
	span.SetAttribute("handler.import_strategy", string(strategy))

	h, err := l.load(ctx, id, strategy)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttribute("handler.hooks", h.Hooks())
	return h, nil
}

func (l *Loader) load(ctx context.Context, id string, strategy domain.ImportStrategy) (*domain.Handler, error) {
	if l.clearOnChange && l.modules.TakeDirty() {
		l.modules.EvictAll()
	} else {
		l.modules.Evict(id)
	}

	rt, err := l.runtimeFor(id)
	if err != nil {
		return nil, err
	}

	mod, err := l.importModule(ctx, rt, id, strategy)
	if err != nil {
		return nil, err
	}

	serve := mod.Handler()
	if serve == nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrNotInvocable, "load handler"), "id", id)
	}

	h := &domain.Handler{ID: id, Runtime: rt.Name(), Serve: serve}
	if hook, ok := mod.Hook(domain.HookCreate); ok {
		h.OnCreate = hook
	}
	if hook, ok := mod.Hook(domain.HookDestroy); ok {
		h.OnDestroy = hook
	}

	if h.OnCreate != nil {
		if err := runHook(ctx, h.OnCreate); err != nil {
			return nil, zerr.With(zerr.With(cause(domain.ErrHookFailed, err), "id", id), "hook", domain.HookCreate)
		}
	}

	l.cache.Put(h)
	return h, nil
}

func (l *Loader) runtimeFor(id string) (ports.Runtime, error) {
	for _, rt := range l.runtimes {
		if rt.Supports(id) {
			return rt, nil
		}
	}
	return nil, zerr.With(cause(domain.ErrImportFailed, domain.ErrNoRuntime), "id", id)
}

func (l *Loader) importModule(
	ctx context.Context,
	rt ports.Runtime,
	id string,
	strategy domain.ImportStrategy,
) (ports.Module, error) {
	switch strategy {
	case domain.ImportAlways:
		return l.loadAsync(ctx, rt, id)
	case domain.ImportFallback:
		mod, err := l.loadSync(ctx, rt, id)
		if err == nil {
			return mod, nil
		}
		l.logger.Debug(fmt.Sprintf("synchronous load of %s failed, retrying asynchronously: %v", id, err))
		return l.loadAsync(ctx, rt, id)
	default:
		return l.loadSync(ctx, rt, id)
	}
}

func (l *Loader) loadSync(ctx context.Context, rt ports.Runtime, id string) (ports.Module, error) {
	if mod, ok := l.modules.Get(id); ok {
		return mod, nil
	}
	mod, err := rt.Load(ctx, id)
	if err != nil {
		return nil, zerr.With(zerr.With(cause(domain.ErrImportFailed, err), "id", id), "runtime", rt.Name())
	}
	l.modules.Put(id, mod)
	return mod, nil
}

type loadResult struct {
	mod ports.Module
	err error
}

// loadAsync loads under a key no earlier load used, so no cached module can be returned.
func (l *Loader) loadAsync(ctx context.Context, rt ports.Runtime, id string) (ports.Module, error) {
	key := l.modules.NonceKey(id)
	done := make(chan loadResult, 1)
	go func() {
		mod, err := rt.Load(ctx, id)
		done <- loadResult{mod: mod, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, zerr.With(cause(domain.ErrImportFailed, ctx.Err()), "id", id)
	case res := <-done:
		if res.err != nil {
			return nil, zerr.With(zerr.With(cause(domain.ErrImportFailed, res.err), "id", id), "runtime", rt.Name())
		}
		l.modules.Put(key, res.mod)
		return res.mod, nil
	}
}

// runHook calls hook, turning a panic into an error.
func runHook(ctx context.Context, hook domain.HookFunc) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return hook(ctx)
}

// cause joins a sentinel with the error that triggered it, keeping both matchable.
func cause(sentinel, err error) error {
	return fmt.Errorf("%w: %w", sentinel, err)
}
