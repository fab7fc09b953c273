package scheduler

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/jonboulle/clockwork"
	"go.trai.ch/wick/internal/adapters/config" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/wick/internal/adapters/kv"     //nolint:depguard // Wired in engine wiring
	"go.trai.ch/wick/internal/adapters/logger" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/wick/internal/core/domain"
	"go.trai.ch/wick/internal/core/ports"
	"go.trai.ch/wick/internal/engine/updater"
)

// NodeID is the unique identifier for the scheduler Graft node.
const NodeID graft.ID = "engine.scheduler"

func init() {
	graft.Register(graft.Node[*Scheduler]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			kv.NodeID,
			logger.NodeID,
			updater.NodeID,
		},
		Run: func(ctx context.Context) (*Scheduler, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}

			store, err := graft.Dep[ports.KeyValueStore](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			up, err := graft.Dep[*updater.Updater](ctx)
			if err != nil {
				return nil, err
			}

			return NewScheduler(
				store,
				domain.NewKeys(cfg.Namespace),
				clockwork.NewRealClock(),
				log,
				cfg.CheckInterval,
				cfg.GraceDelay,
				UpdateAllCycle(up),
			), nil
		},
	})
}

// UpdateAllCycle returns a Cycle that runs UpdateAll and waits for it to settle.
// Failures are delivered to the updater's error reporter.
func UpdateAllCycle(up *updater.Updater) Cycle {
	return func(ctx context.Context) error {
		done := make(chan struct{})
		up.UpdateAll(ctx, func(bool) { close(done) })

		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
