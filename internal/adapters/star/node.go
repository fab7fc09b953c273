package star

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/wick/internal/adapters/logger"
	"go.trai.ch/wick/internal/core/ports"
)

// NodeID is the unique identifier for the Starlark environment Graft node.
const NodeID graft.ID = "adapter.star"

func init() {
	graft.Register(graft.Node[*Environment]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (*Environment, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(log), nil
		},
	})
}
