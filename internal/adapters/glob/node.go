package glob

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/tend/internal/core/ports"
)

// NodeID is the unique identifier for the glob resolver Graft node.
const NodeID graft.ID = "adapter.glob"

func init() {
	graft.Register(graft.Node[ports.GlobResolver]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.GlobResolver, error) {
			return NewResolver(), nil
		},
	})
}
