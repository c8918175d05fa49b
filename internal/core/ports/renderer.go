package ports

import (
	"context"
	"time"
)

// Renderer presents the progress of a run.
// It is fed from span start/end events and from action output written to spans.
//
//go:generate go run go.uber.org/mock/mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// Start initializes the renderer.
	Start(ctx context.Context) error

	// Stop flushes buffered output.
	Stop() error

	// OnPlanEmit is called once with the targets the run will look at, in declaration order.
	OnPlanEmit(targets []string)

	// OnTaskStart is called when an action begins.
	OnTaskStart(spanID, parentID, name string, startTime time.Time)

	// OnTaskLog is called with raw output of a running action.
	OnTaskLog(spanID string, data []byte)

	// OnTaskComplete is called when an action finishes; err is nil on success.
	OnTaskComplete(spanID string, endTime time.Time, err error)
}
