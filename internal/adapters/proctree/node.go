package proctree

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/tend/internal/adapters/logger"
	"go.trai.ch/tend/internal/core/ports"
)

const (
	// TableNodeID is the unique identifier for the process table Graft node.
	TableNodeID graft.ID = "adapter.proctree.table"
	// KillerNodeID is the unique identifier for the tree killer Graft node.
	KillerNodeID graft.ID = "adapter.proctree.killer"
)

func init() {
	graft.Register(graft.Node[ports.ProcessTable]{
		ID:        TableNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ProcessTable, error) {
			return NewTable(), nil
		},
	})

	graft.Register(graft.Node[ports.TreeKiller]{
		ID:        KillerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{TableNodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.TreeKiller, error) {
			table, err := graft.Dep[ports.ProcessTable](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewKiller(table, log), nil
		},
	})
}
