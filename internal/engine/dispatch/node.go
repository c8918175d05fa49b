package dispatch

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/bake/internal/adapters/fs"        //nolint:depguard // Wired in engine wiring
	"go.trai.ch/bake/internal/adapters/toolchain" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/bake/internal/core/ports"
)

// NodeID is the unique identifier for the dispatcher Graft node.
const NodeID graft.ID = "engine.dispatch"

func init() {
	graft.Register(graft.Node[*Dispatcher]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{toolchain.NodeID, fs.VerifierNodeID},
		Run: func(ctx context.Context) (*Dispatcher, error) {
			actions, err := graft.Dep[toolchain.Table](ctx)
			if err != nil {
				return nil, err
			}

			verifier, err := graft.Dep[ports.Verifier](ctx)
			if err != nil {
				return nil, err
			}

			return New(Table(actions), verifier), nil
		},
	})
}
