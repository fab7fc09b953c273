package report

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/wick/internal/adapters/logger"
	"go.trai.ch/wick/internal/core/ports"
)

const (
	// HookNodeID is the unique identifier for the concrete hook Graft node.
	HookNodeID graft.ID = "adapter.report.hook"
	// NodeID is the unique identifier for the error reporter Graft node.
	NodeID graft.ID = "adapter.report"
)

func init() {
	graft.Register(graft.Node[*Hook]{
		ID:        HookNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (*Hook, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(log), nil
		},
	})

	graft.Register(graft.Node[ports.ErrorReporter]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{HookNodeID},
		Run: func(ctx context.Context) (ports.ErrorReporter, error) {
			h, err := graft.Dep[*Hook](ctx)
			if err != nil {
				return nil, err
			}
			return h, nil
		},
	})
}
