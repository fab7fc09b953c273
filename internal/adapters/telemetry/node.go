package telemetry

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/wick/internal/core/ports"
)

// TracerNodeID is the unique identifier for the tracer Graft node.
const TracerNodeID graft.ID = "adapter.tracer"

// InstrumentationName names the tracer of the module loader.
const InstrumentationName = "go.trai.ch/wick"

func init() {
	graft.Register(graft.Node[ports.Tracer]{
		ID:        TracerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Tracer, error) {
			return NewOTelTracer(InstrumentationName), nil
		},
	})
}
