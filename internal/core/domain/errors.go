package domain

import "go.trai.ch/zerr"

var (
	// ErrResourceNotFound is returned when a candidate resource does not exist on disk.
	// It is negative-cached and never logged.
	ErrResourceNotFound = zerr.New("resource not found")

	// ErrNotInvocable is returned when a loaded handler module does not export a request entry point.
	ErrNotInvocable = zerr.New("handler module does not export an invocable entry point")

	// ErrImportFailed is returned when a runtime fails to load or evaluate a handler module.
	ErrImportFailed = zerr.New("failed to import handler module")

	// ErrHookFailed is returned when a lifecycle hook returns an error.
	ErrHookFailed = zerr.New("lifecycle hook failed")

	// ErrHandlerFailed is returned when a handler fails while serving a request.
	ErrHandlerFailed = zerr.New("handler failed")

	// ErrNoRuntime is returned when no registered runtime can load a resource.
	ErrNoRuntime = zerr.New("no runtime supports resource")

	// ErrRouterDestroyed is returned by every dispatch or lookup after the router was torn down.
	ErrRouterDestroyed = zerr.New("router has been destroyed")

	// ErrConfigLoadFailed is returned when a configuration resource cannot be read.
	ErrConfigLoadFailed = zerr.New("failed to load configuration")

	// ErrConfigParseFailed is returned when a configuration resource cannot be decoded.
	ErrConfigParseFailed = zerr.New("failed to parse configuration")

	// ErrUnsupportedConfigFormat is returned for directory config resources with an unknown extension.
	ErrUnsupportedConfigFormat = zerr.New("unsupported configuration format")

	// ErrInvalidPattern is returned when a glob or regular expression rule cannot be compiled.
	ErrInvalidPattern = zerr.New("invalid pattern")

	// ErrInvalidImportStrategy is returned for an unknown import strategy name.
	ErrInvalidImportStrategy = zerr.New("invalid import strategy")

	// ErrInvalidLogLevel is returned for an unknown log level name.
	ErrInvalidLogLevel = zerr.New("invalid log level")

	// ErrRootNotDirectory is returned when the configured root is missing or not a directory.
	ErrRootNotDirectory = zerr.New("root is not a directory")

	// ErrWatcherFailed is returned when the filesystem watcher cannot be started.
	ErrWatcherFailed = zerr.New("failed to start watcher")
)
