package config

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/wick/internal/adapters/logger"
	"go.trai.ch/wick/internal/core/domain"
	"go.trai.ch/wick/internal/core/ports"
)

// NodeID is the unique identifier for the configuration Graft node.
const NodeID graft.ID = "adapter.config"

func init() {
	graft.Register(graft.Node[*domain.Config]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (*domain.Config, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			opts := OptionsFrom(ctx)
			path := opts.Path
			if path == "" {
				path = domain.DefaultConfigFile
			}

			cfg, err := Load(path)
			if err != nil {
				return nil, err
			}
			if err := Override(cfg, opts); err != nil {
				return nil, err
			}

			if cfg.RandomSalt {
				log.Warn("no salt configured, cached modules will not verify in a later session")
			}
			return cfg, nil
		},
	})
}
