package static

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/fsroute/internal/core/ports"
)

// NodeID is the unique identifier for the static server Graft node.
const NodeID graft.ID = "adapter.static"

func init() {
	graft.Register(graft.Node[ports.StaticServer]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.StaticServer, error) {
			return NewServer(), nil
		},
	})
}
