package toolchain

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/bake/internal/adapters/shell"
	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
)

// NodeID is the unique identifier for the toolchain actions Graft node.
const NodeID graft.ID = "adapter.toolchain"

// Table maps every action kind to its implementation.
type Table map[domain.ActionKind]ports.Action

func init() {
	graft.Register(graft.Node[Table]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{shell.NodeID},
		Run: func(ctx context.Context) (Table, error) {
			exec, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}
			return Actions(exec), nil
		},
	})
}
