package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/fsroute/internal/adapters/config"         //nolint:depguard // Wired in app layer
	"go.trai.ch/fsroute/internal/adapters/logger"         //nolint:depguard // Wired in app layer
	"go.trai.ch/fsroute/internal/adapters/runtime/native" //nolint:depguard // Wired in app layer
	"go.trai.ch/fsroute/internal/adapters/runtime/shell"  //nolint:depguard // Wired in app layer
	"go.trai.ch/fsroute/internal/adapters/static"         //nolint:depguard // Wired in app layer
	"go.trai.ch/fsroute/internal/adapters/telemetry"      //nolint:depguard // Wired in app layer
	"go.trai.ch/fsroute/internal/adapters/watcher"        //nolint:depguard // Wired in app layer
	"go.trai.ch/fsroute/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.GlobalNodeID,
			config.DirectoryNodeID,
			static.NodeID,
			watcher.NodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
			shell.NodeID,
			native.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{App: app, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	globals, err := graft.Dep[ports.GlobalConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	configs, err := graft.Dep[ports.DirectoryConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	srv, err := graft.Dep[ports.StaticServer](ctx)
	if err != nil {
		return nil, err
	}

	newWatcher, err := graft.Dep[watcher.Factory](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}

	sh, err := graft.Dep[*shell.Runtime](ctx)
	if err != nil {
		return nil, err
	}

	natives, err := graft.Dep[*native.Registry](ctx)
	if err != nil {
		return nil, err
	}

	return New(globals, configs, srv, newWatcher, log, tracer, sh, natives), nil
}
