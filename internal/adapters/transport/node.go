package transport

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/wick/internal/adapters/config"
	"go.trai.ch/wick/internal/core/domain"
	"go.trai.ch/wick/internal/core/ports"
)

// NodeID is the unique identifier for the transport Graft node.
const NodeID graft.ID = "adapter.transport"

func init() {
	graft.Register(graft.Node[ports.Transport]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID},
		Run: func(ctx context.Context) (ports.Transport, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			return New(cfg.HTTPTimeout), nil
		},
	})
}
