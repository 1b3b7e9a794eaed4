package config

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/fsroute/internal/core/ports"
)

const (
	// GlobalNodeID is the unique identifier for the global config loader Graft node.
	GlobalNodeID graft.ID = "adapter.global_config_loader"
	// DirectoryNodeID is the unique identifier for the directory config loader Graft node.
	DirectoryNodeID graft.ID = "adapter.directory_config_loader"
)

func init() {
	graft.Register(graft.Node[ports.GlobalConfigLoader]{
		ID:        GlobalNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.GlobalConfigLoader, error) {
			return NewGlobalLoader(), nil
		},
	})

	graft.Register(graft.Node[ports.DirectoryConfigLoader]{
		ID:        DirectoryNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.DirectoryConfigLoader, error) {
			return NewDirectoryLoader(), nil
		},
	})
}
