package config

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/bake/internal/adapters/fs"       //nolint:depguard // Wired in node
	"go.trai.ch/bake/internal/adapters/includes" //nolint:depguard // Wired in node
	"go.trai.ch/bake/internal/adapters/logger"   //nolint:depguard // Wired in node
	"go.trai.ch/bake/internal/core/ports"
)

// NodeID is the unique identifier for the config loader Graft node.
const NodeID graft.ID = "adapter.config_loader"

func init() {
	graft.Register(graft.Node[ports.ConfigLoader]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID, fs.ResolverNodeID, includes.NodeID},
		Run: func(ctx context.Context) (ports.ConfigLoader, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			resolver, err := graft.Dep[ports.InputResolver](ctx)
			if err != nil {
				return nil, err
			}

			scanner, err := graft.Dep[*includes.Scanner](ctx)
			if err != nil {
				return nil, err
			}

			return NewLoader(log, resolver, scanner), nil
		},
	})
}
