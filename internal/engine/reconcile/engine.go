package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/fsroute/internal/core/domain"
	"go.trai.ch/fsroute/internal/core/ports"
	"go.trai.ch/fsroute/internal/engine/dirconfig"
	"go.trai.ch/fsroute/internal/engine/handlers"
	"golang.org/x/sync/errgroup"
)

// Engine runs reconciliation passes. A pass holds the router lock from drain to the
// last handler update.
type Engine struct {
	lock     sync.Locker
	queue    *Queue
	resolver *dirconfig.Resolver
	configs  ports.DirectoryConfigLoader
	handlers *handlers.Manager
	cfg      domain.GlobalConfig
	logger   ports.Logger
	tracer   ports.Tracer

	initOnce    sync.Once
	initialized chan struct{}
}

// Deps groups the collaborators of an Engine.
type Deps struct {
	Lock     sync.Locker
	Queue    *Queue
	Resolver *dirconfig.Resolver
	Configs  ports.DirectoryConfigLoader
	Handlers *handlers.Manager
	Logger   ports.Logger
	Tracer   ports.Tracer
}

// NewEngine creates an Engine for the router configured by cfg.
func NewEngine(cfg domain.GlobalConfig, deps Deps) *Engine {
	return &Engine{
		lock:        deps.Lock,
		queue:       deps.Queue,
		resolver:    deps.Resolver,
		configs:     deps.Configs,
		handlers:    deps.Handlers,
		cfg:         cfg,
		logger:      deps.Logger,
		tracer:      deps.Tracer,
		initialized: make(chan struct{}),
	}
}

// Initialized is closed once the first pass has completed.
func (e *Engine) Initialized() <-chan struct{} {
	return e.initialized
}

type entry struct {
	domain.PendingChange
	rel    string
	inRoot bool
	// orphan marks a cached handler whose directory was removed.
	orphan bool
}

// Run drains the queue and applies it: directory configs first, then every handler
// whose exec eligibility held before or after the config update.
func (e *Engine) Run(ctx context.Context) {
	e.lock.Lock()
	defer e.lock.Unlock()

	ctx, span := e.tracer.Start(ctx, "reconcile")
	defer span.End()

	drained := e.queue.Drain()
	span.SetAttribute("reconcile.entries", len(drained))

	var configDirs []string
	var regular []entry
	for _, change := range drained {
		rel, inRoot := e.relative(change.ID)
		if inRoot && domain.IsConfigResource(change.ID) {
			if dir := filepath.Dir(change.ID); !slices.Contains(configDirs, dir) {
				configDirs = append(configDirs, dir)
			}
			continue
		}
		regular = append(regular, entry{PendingChange: change, rel: rel, inRoot: inRoot})
	}
	regular, configDirs = e.expandRemovedDirs(regular, configDirs)

	wasExec := make([]bool, len(regular))
	for i, en := range regular {
		wasExec[i] = en.orphan || (en.inRoot && e.resolver.IsExec(en.rel))
	}

	for _, dir := range configDirs {
		e.reloadConfig(dir)
	}

	// Entries that lost exec eligibility are unloaded but never reloaded.
	updates := make(map[string]bool)
	for i, en := range regular {
		isExec := en.inRoot && e.resolver.IsExec(en.rel)
		if wasExec[i] || isExec {
			updates[en.ID] = en.ShouldReload && isExec
		}
	}
	if e.cfg.ForceFullReload {
		for _, id := range e.handlers.Cache().IDs() {
			if _, ok := updates[id]; !ok {
				updates[id] = true
			}
		}
	}
	span.SetAttribute("reconcile.handlers", len(updates))

	var g errgroup.Group
	for id, shouldReload := range updates {
		reload := !e.cfg.LoadOnDemand && shouldReload
		strategy := e.strategyFor(id)
		g.Go(func() error {
			e.handlers.Update(ctx, id, reload, strategy)
			return nil
		})
	}
	_ = g.Wait()

	e.logger.Debug("Reconciliation finished")
	e.initOnce.Do(func() { close(e.initialized) })
}

// expandRemovedDirs adds, for every removed path that was a directory, the cached
// handlers and the directory configs below it. A directory moved out of the root
// produces a single removal for the directory itself.
func (e *Engine) expandRemovedDirs(regular []entry, configDirs []string) ([]entry, []string) {
	var cached, dirs []string
	n := len(regular)
	for i := range n {
		en := regular[i]
		if en.ShouldReload || !en.inRoot || en.rel == "" {
			continue
		}
		if _, err := os.Lstat(en.ID); err == nil {
			continue
		}
		if cached == nil {
			cached = e.handlers.Cache().IDs()
			dirs = e.resolver.Dirs()
		}

		prefix := en.ID + string(filepath.Separator)
		for _, id := range cached {
			if !strings.HasPrefix(id, prefix) {
				continue
			}
			rel, _ := e.relative(id)
			regular = append(regular, entry{
				PendingChange: domain.PendingChange{ID: id},
				rel:           rel,
				inRoot:        true,
				orphan:        true,
			})
		}
		for _, d := range dirs {
			if d != en.rel && !strings.HasPrefix(d, en.rel+"/") {
				continue
			}
			if dir := filepath.Join(e.cfg.Root, filepath.FromSlash(d)); !slices.Contains(configDirs, dir) {
				configDirs = append(configDirs, dir)
			}
		}
	}
	return regular, configDirs
}

// reloadConfig loads the first config resource present in dir. When none is left the
// directory loses its explicit config; when loading fails the previous one stays.
func (e *Engine) reloadConfig(dir string) {
	relDir, _ := e.relative(dir)

	source, ok := findConfig(dir)
	if !ok {
		if e.resolver.Delete(relDir) {
			e.logger.Info("Removed directory config " + dir)
		}
		return
	}

	cfg, err := e.configs.Load(source)
	if err != nil {
		e.logger.Error(err)
		return
	}
	e.resolver.Set(relDir, cfg)
	e.logger.Info("Loaded directory config " + source)
}

func (e *Engine) strategyFor(id string) domain.ImportStrategy {
	rel, _ := e.relative(id)
	return e.resolver.Resolve(rel).ImportStrategy
}

// relative returns path relative to the root, slash-separated, and whether it lies
// inside the root.
func (e *Engine) relative(path string) (string, bool) {
	rel, err := filepath.Rel(e.cfg.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	if rel == "." {
		rel = ""
	}
	return filepath.ToSlash(rel), true
}

func findConfig(dir string) (string, bool) {
	for _, ext := range domain.ConfigExtensions {
		p := filepath.Join(dir, domain.ConfigBaseName+ext)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p, true
		}
	}
	return "", false
}
