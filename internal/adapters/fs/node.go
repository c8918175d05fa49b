package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/bake/internal/core/ports"
)

const (
	// WalkerNodeID is the unique identifier for the file walker Graft node.
	WalkerNodeID graft.ID = "adapter.fs.walker"
	// ResolverNodeID is the unique identifier for the input resolver Graft node.
	ResolverNodeID graft.ID = "adapter.fs.resolver"
	// FingerprinterNodeID is the unique identifier for the fingerprinter Graft node.
	FingerprinterNodeID graft.ID = "adapter.fs.fingerprinter"
	// VerifierNodeID is the unique identifier for the output verifier Graft node.
	VerifierNodeID graft.ID = "adapter.fs.verifier"
)

func init() {
	graft.Register(graft.Node[*Walker]{
		ID:        WalkerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Walker, error) {
			return NewWalker(), nil
		},
	})

	graft.Register(graft.Node[ports.InputResolver]{
		ID:        ResolverNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.InputResolver, error) {
			return NewResolver(), nil
		},
	})

	graft.Register(graft.Node[ports.Fingerprinter]{
		ID:        FingerprinterNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{WalkerNodeID},
		Run: func(ctx context.Context) (ports.Fingerprinter, error) {
			walker, err := graft.Dep[*Walker](ctx)
			if err != nil {
				return nil, err
			}
			return NewFingerprinter(walker), nil
		},
	})

	graft.Register(graft.Node[ports.Verifier]{
		ID:        VerifierNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Verifier, error) {
			return NewVerifier(), nil
		},
	})
}
