package scheduler

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/bake/internal/adapters/fs"        //nolint:depguard // Wired in engine wiring
	"go.trai.ch/bake/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/bake/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/bake/internal/engine/dispatch"
)

// NodeID is the unique identifier for the scheduler Graft node.
const NodeID graft.ID = "engine.scheduler"

func init() {
	graft.Register(graft.Node[*Scheduler]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			dispatch.NodeID,
			fs.FingerprinterNodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Scheduler, error) {
			dispatcher, err := graft.Dep[*dispatch.Dispatcher](ctx)
			if err != nil {
				return nil, err
			}

			fingerprinter, err := graft.Dep[ports.Fingerprinter](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[*telemetry.OTelTracer](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return NewScheduler(dispatcher, fingerprinter, tracer, log), nil
		},
	})
}
