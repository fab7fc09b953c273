package checksum

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/wick/internal/core/ports"
)

// NodeID is the unique identifier for the checksum adapter Graft node.
const NodeID graft.ID = "adapter.checksum"

func init() {
	graft.Register(graft.Node[ports.Checksummer]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Checksummer, error) {
			return New(), nil
		},
	})
}
