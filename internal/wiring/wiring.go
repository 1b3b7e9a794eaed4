// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/fsroute/internal/adapters/config"
	_ "go.trai.ch/fsroute/internal/adapters/logger"
	_ "go.trai.ch/fsroute/internal/adapters/runtime/native"
	_ "go.trai.ch/fsroute/internal/adapters/runtime/shell"
	_ "go.trai.ch/fsroute/internal/adapters/static"
	_ "go.trai.ch/fsroute/internal/adapters/telemetry"
	_ "go.trai.ch/fsroute/internal/adapters/watcher"
	// Register app nodes.
	_ "go.trai.ch/fsroute/internal/app"
)
