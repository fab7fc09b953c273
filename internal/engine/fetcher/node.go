package fetcher

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/wick/internal/adapters/star"      //nolint:depguard // Wired in engine wiring
	"go.trai.ch/wick/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/wick/internal/adapters/transport" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/wick/internal/core/ports"
)

// NodeID is the unique identifier for the fetcher Graft node.
const NodeID graft.ID = "engine.fetcher"

func init() {
	graft.Register(graft.Node[*Fetcher]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			transport.NodeID,
			star.NodeID,
			telemetry.TracerNodeID,
		},
		Run: func(ctx context.Context) (*Fetcher, error) {
			tr, err := graft.Dep[ports.Transport](ctx)
			if err != nil {
				return nil, err
			}

			env, err := graft.Dep[*star.Environment](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			return New(tr, env, tracer), nil
		},
	})
}
