// Package app implements the application layer for fsroute.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.trai.ch/fsroute/internal/adapters/watcher"
	"go.trai.ch/fsroute/internal/core/domain"
	"go.trai.ch/fsroute/internal/core/ports"
	"go.trai.ch/fsroute/internal/router"
	"go.trai.ch/zerr"
)

// DefaultShutdownTimeout bounds the graceful shutdown of the HTTP servers.
const DefaultShutdownTimeout = 10 * time.Second

// App wires configuration, runtimes and adapters into routers.
type App struct {
	globals    ports.GlobalConfigLoader
	configs    ports.DirectoryConfigLoader
	static     ports.StaticServer
	newWatcher watcher.Factory
	logger     ports.Logger
	tracer     ports.Tracer
	runtimes   []ports.Runtime

	shutdownTimeout time.Duration
}

// New creates a new App instance.
func New(
	globals ports.GlobalConfigLoader,
	configs ports.DirectoryConfigLoader,
	static ports.StaticServer,
	newWatcher watcher.Factory,
	log ports.Logger,
	tracer ports.Tracer,
	runtimes ...ports.Runtime,
) *App {
	return &App{
		globals:         globals,
		configs:         configs,
		static:          static,
		newWatcher:      newWatcher,
		logger:          log,
		tracer:          tracer,
		runtimes:        runtimes,
		shutdownTimeout: DefaultShutdownTimeout,
	}
}

// WithShutdownTimeout overrides the graceful shutdown timeout.
func (a *App) WithShutdownTimeout(d time.Duration) *App {
	a.shutdownTimeout = d
	return a
}

// ConfigOptions selects the configuration sources of a command.
type ConfigOptions struct {
	// Path is an explicit config file. Empty means fsroute.* in the working directory.
	Path string
	// Overrides are applied last, keyed by configuration key.
	Overrides map[string]any
}

// configurable is implemented by loggers whose output can be tuned at runtime.
type configurable interface {
	SetLevel(level domain.LogLevel)
	SetJSON(enable bool)
}

// loadConfig loads the process configuration and applies its logging settings.
func (a *App) loadConfig(opts ConfigOptions) (*domain.Config, error) {
	cfg, err := a.globals.Load(opts.Path, opts.Overrides)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	if l, ok := a.logger.(configurable); ok {
		l.SetLevel(cfg.Server.LogLevel)
		l.SetJSON(cfg.Server.LogJSON)
	}
	return cfg, nil
}

func (a *App) newRouter(cfg domain.GlobalConfig, w ports.Watcher) *router.Router {
	return router.New(router.Options{
		Config:       cfg,
		Runtimes:     a.runtimes,
		Static:       a.static,
		Configs:      a.configs,
		Watcher:      w,
		Logger:       a.logger,
		Tracer:       a.tracer,
		ErrorHandler: a.handleError,
	})
}

// handleError answers a failed request.
func (a *App) handleError(w http.ResponseWriter, _ *http.Request, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, domain.ErrRouterDestroyed) {
		status = http.StatusServiceUnavailable
	}
	http.Error(w, http.StatusText(status), status)
}

func shutdownContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}
