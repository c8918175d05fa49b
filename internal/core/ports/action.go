package ports

import (
	"context"
	"io"

	"go.trai.ch/bake/internal/core/domain"
)

// Action produces one output from its inputs and options.
// On failure it must not leave anything that looks like a valid output behind.
//
//go:generate go run go.uber.org/mock/mockgen -source=action.go -destination=mocks/mock_action.go -package=mocks
type Action interface {
	Execute(ctx context.Context, req domain.ActionRequest, out io.Writer) error
}

// Dispatcher runs the action bound to a target's kind.
type Dispatcher interface {
	// Dispatch invokes the action for t exactly once. It does not check staleness.
	Dispatch(ctx context.Context, bc *domain.BuildContext, t *domain.Target, out io.Writer) error
}
