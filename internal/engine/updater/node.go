package updater

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/wick/internal/adapters/report"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/wick/internal/adapters/star"      //nolint:depguard // Wired in engine wiring
	"go.trai.ch/wick/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/wick/internal/core/ports"
	"go.trai.ch/wick/internal/engine/fetcher"
	"go.trai.ch/wick/internal/engine/modcache"
	"go.trai.ch/wick/internal/engine/registry"
)

// NodeID is the unique identifier for the updater Graft node.
const NodeID graft.ID = "engine.updater"

func init() {
	graft.Register(graft.Node[*Updater]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			registry.NodeID,
			modcache.NodeID,
			fetcher.NodeID,
			star.NodeID,
			report.NodeID,
			telemetry.TracerNodeID,
		},
		Run: func(ctx context.Context) (*Updater, error) {
			reg, err := graft.Dep[*registry.Registry](ctx)
			if err != nil {
				return nil, err
			}

			cache, err := graft.Dep[*modcache.Cache](ctx)
			if err != nil {
				return nil, err
			}

			f, err := graft.Dep[*fetcher.Fetcher](ctx)
			if err != nil {
				return nil, err
			}

			env, err := graft.Dep[*star.Environment](ctx)
			if err != nil {
				return nil, err
			}

			reporter, err := graft.Dep[ports.ErrorReporter](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			return New(reg, cache, f, env, env, reporter, tracer), nil
		},
	})
}
