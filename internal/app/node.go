package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/bake/internal/adapters/cas"       //nolint:depguard // Wired in app layer
	"go.trai.ch/bake/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/bake/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/bake/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/bake/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/bake/internal/engine/dispatch"
	"go.trai.ch/bake/internal/engine/scheduler"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components bundles what the entry point needs.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			scheduler.NodeID,
			dispatch.NodeID,
			cas.NodeID,
			telemetry.TracerNodeID,
			watcher.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{App: a, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	sched, err := graft.Dep[*scheduler.Scheduler](ctx)
	if err != nil {
		return nil, err
	}

	dispatcher, err := graft.Dep[*dispatch.Dispatcher](ctx)
	if err != nil {
		return nil, err
	}

	stores, err := graft.Dep[ports.StoreOpener](ctx)
	if err != nil {
		return nil, err
	}

	tracer, err := graft.Dep[*telemetry.OTelTracer](ctx)
	if err != nil {
		return nil, err
	}

	w, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, sched, dispatcher, stores, tracer, w, log), nil
}
