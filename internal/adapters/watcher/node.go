package watcher

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/tend/internal/adapters/glob"
	"go.trai.ch/tend/internal/adapters/logger"
	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/tend/internal/core/ports"
	"go.trai.ch/tend/internal/engine/loop"
)

// NodeID is the unique identifier for the watch set factory Graft node.
const NodeID graft.ID = "adapter.watcher"

// Factory creates watch sets sharing one resolver and logger.
type Factory struct {
	Resolver ports.GlobResolver
	Logger   ports.Logger
}

// New creates a WatchSet bound to l.
func (f *Factory) New(l *loop.Loop, opts Options, notify func(domain.Change)) (*WatchSet, error) {
	return NewWatchSet(l, f.Resolver, f.Logger, opts, notify)
}

func init() {
	graft.Register(graft.Node[*Factory]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{glob.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (*Factory, error) {
			resolver, err := graft.Dep[ports.GlobResolver](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Factory{Resolver: resolver, Logger: log}, nil
		},
	})
}
