package ports

import "go.trai.ch/bake/internal/core/domain"

// ConfigLoader defines the interface for loading the build description.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load finds the Bakefile from cwd (or uses path when non-empty), declares its targets
	// and returns the project with a frozen graph.
	Load(cwd, path string) (*domain.Project, error)
}
