// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"

	"go.trai.ch/bake/internal/core/domain"
)

// Executor runs external tools on behalf of actions.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Run executes cmd, streaming its combined output to out.
	// It returns an error if the tool cannot be started or exits unsuccessfully.
	Run(ctx context.Context, cmd domain.Command, out io.Writer) error
}
