package modcache

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/wick/internal/adapters/checksum" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/wick/internal/adapters/config"   //nolint:depguard // Wired in engine wiring
	"go.trai.ch/wick/internal/adapters/kv"       //nolint:depguard // Wired in engine wiring
	"go.trai.ch/wick/internal/adapters/logger"   //nolint:depguard // Wired in engine wiring
	"go.trai.ch/wick/internal/core/domain"
	"go.trai.ch/wick/internal/core/ports"
	"go.trai.ch/zerr"
)

// NodeID is the unique identifier for the module cache Graft node.
const NodeID graft.ID = "engine.modcache"

func init() {
	graft.Register(graft.Node[*Cache]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			kv.NodeID,
			checksum.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Cache, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}

			store, err := graft.Dep[ports.KeyValueStore](ctx)
			if err != nil {
				return nil, zerr.Wrap(err, domain.ErrStoreUnavailable.Error())
			}

			sum, err := graft.Dep[ports.Checksummer](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return New(store, sum, log, cfg.Namespace, cfg.Salt), nil
		},
	})
}
