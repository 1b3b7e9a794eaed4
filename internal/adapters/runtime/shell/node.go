package shell

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/fsroute/internal/adapters/logger"
	"go.trai.ch/fsroute/internal/core/ports"
)

// NodeID is the unique identifier for the shell runtime Graft node.
const NodeID graft.ID = "adapter.runtime.shell"

func init() {
	graft.Register(graft.Node[*Runtime]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (*Runtime, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewRuntime(log), nil
		},
	})
}
