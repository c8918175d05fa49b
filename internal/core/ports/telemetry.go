package ports

import (
	"context"
	"io"
)

//go:generate go run go.uber.org/mock/mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Tracer is the entry point for creating spans.
type Tracer interface {
	// Start creates a new span.
	Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
	// EmitPlan signals which targets the run will look at.
	EmitPlan(ctx context.Context, targets []string)
}

// Span represents a unit of work.
type Span interface {
	io.Writer
	// End completes the span.
	End()
	// RecordError records an error for the span.
	RecordError(err error)
	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
}

// SpanConfig holds configuration for a starting span.
type SpanConfig struct {
	// Kind is the action kind of the target the span covers, if any.
	Kind string
}

// SpanOption is a functional option for configuring a span.
type SpanOption func(*SpanConfig)

// WithKind tags a span with an action kind.
func WithKind(kind string) SpanOption {
	return func(c *SpanConfig) {
		c.Kind = kind
	}
}
