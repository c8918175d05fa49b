package ports

// InputResolver defines the interface for resolving input files.
//
//go:generate go run go.uber.org/mock/mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type InputResolver interface {
	// ResolveInputs expands glob patterns relative to root. Plain paths are kept as written,
	// whether or not they exist yet, since they may be produced by other targets.
	ResolveInputs(inputs []string, root string) ([]string, error)
}
