package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/tend/internal/adapters/config"   //nolint:depguard // Wired in app layer
	"go.trai.ch/tend/internal/adapters/logger"   //nolint:depguard // Wired in app layer
	"go.trai.ch/tend/internal/adapters/metrics"  //nolint:depguard // Wired in app layer
	"go.trai.ch/tend/internal/adapters/proctree" //nolint:depguard // Wired in app layer
	"go.trai.ch/tend/internal/adapters/shell"    //nolint:depguard // Wired in app layer
	"go.trai.ch/tend/internal/adapters/watcher"  //nolint:depguard // Wired in app layer
	"go.trai.ch/tend/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			watcher.NodeID,
			shell.NodeID,
			proctree.KillerNodeID,
			metrics.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	watchers, err := graft.Dep[*watcher.Factory](ctx)
	if err != nil {
		return nil, err
	}

	spawner, err := graft.Dep[ports.Spawner](ctx)
	if err != nil {
		return nil, err
	}

	killer, err := graft.Dep[ports.TreeKiller](ctx)
	if err != nil {
		return nil, err
	}

	recorder, err := graft.Dep[*metrics.Recorder](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, watchers, spawner, killer, recorder, log), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	app, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return &Components{
		App:    app,
		Logger: log,
	}, nil
}
