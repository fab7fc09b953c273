package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/wick/internal/adapters/config"             //nolint:depguard // Wired in app layer
	"go.trai.ch/wick/internal/adapters/kv"                 //nolint:depguard // Wired in app layer
	"go.trai.ch/wick/internal/adapters/logger"             //nolint:depguard // Wired in app layer
	"go.trai.ch/wick/internal/adapters/report"             //nolint:depguard // Wired in app layer
	"go.trai.ch/wick/internal/adapters/star"               //nolint:depguard // Wired in app layer
	"go.trai.ch/wick/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/wick/internal/adapters/transport"          //nolint:depguard // Wired in app layer
	"go.trai.ch/wick/internal/core/domain"
	"go.trai.ch/wick/internal/core/ports"
	"go.trai.ch/wick/internal/engine/loader"
	"go.trai.ch/wick/internal/engine/modcache"
	"go.trai.ch/wick/internal/engine/scheduler"
	"go.trai.ch/wick/internal/engine/updater"
)

const (
	// ClientNodeID is the unique identifier for the Client Graft node.
	ClientNodeID graft.ID = "app.client"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*Client]{
		ID:        ClientNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			loader.NodeID,
			updater.NodeID,
			scheduler.NodeID,
			modcache.NodeID,
			transport.NodeID,
			star.NodeID,
			report.HookNodeID,
			logger.NodeID,
		},
		Run: runClientNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			ClientNodeID,
			config.NodeID,
			logger.ConcreteNodeID,
			kv.NodeID,
			progrock.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runClientNode(ctx context.Context) (*Client, error) {
	cfg, err := graft.Dep[*domain.Config](ctx)
	if err != nil {
		return nil, err
	}

	l, err := graft.Dep[*loader.Loader](ctx)
	if err != nil {
		return nil, err
	}

	u, err := graft.Dep[*updater.Updater](ctx)
	if err != nil {
		return nil, err
	}

	s, err := graft.Dep[*scheduler.Scheduler](ctx)
	if err != nil {
		return nil, err
	}

	cache, err := graft.Dep[*modcache.Cache](ctx)
	if err != nil {
		return nil, err
	}

	tr, err := graft.Dep[ports.Transport](ctx)
	if err != nil {
		return nil, err
	}

	env, err := graft.Dep[*star.Environment](ctx)
	if err != nil {
		return nil, err
	}

	hook, err := graft.Dep[*report.Hook](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	c := New(l, u, s, cache, tr, env, hook, log)
	if err := c.Preload(ctx, cfg.Preload...); err != nil {
		return nil, err
	}
	return c, nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	client, err := graft.Dep[*Client](ctx)
	if err != nil {
		return nil, err
	}

	cfg, err := graft.Dep[*domain.Config](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[*logger.Logger](ctx)
	if err != nil {
		return nil, err
	}
	if cfg.LogJSON {
		log.SetJSON(true)
	}

	store, err := graft.Dep[ports.KeyValueStore](ctx)
	if err != nil {
		return nil, err
	}

	telemetry, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}

	return &Components{
		Client:    client,
		Config:    cfg,
		Logger:    log,
		Store:     store,
		Telemetry: telemetry,
	}, nil
}
