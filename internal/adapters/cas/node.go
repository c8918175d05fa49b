package cas

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/bake/internal/adapters/logger" //nolint:depguard // Wired in node
	"go.trai.ch/bake/internal/core/ports"
)

// NodeID is the unique identifier for the signature store opener Graft node.
const NodeID graft.ID = "adapter.signature_store"

func init() {
	graft.Register(graft.Node[ports.StoreOpener]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.StoreOpener, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewOpener(log), nil
		},
	})
}
