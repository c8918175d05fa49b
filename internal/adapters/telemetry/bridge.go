package telemetry

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/bake/internal/core/ports"
)

var _ sdktrace.SpanProcessor = (*Bridge)(nil)

// Bridge implements sdktrace.SpanProcessor to forward span lifecycles to a Renderer.
type Bridge struct {
	mu       sync.RWMutex
	renderer ports.Renderer
}

// NewBridge returns a new Bridge. renderer may be nil.
func NewBridge(renderer ports.Renderer) *Bridge {
	return &Bridge{renderer: renderer}
}

// SetRenderer replaces the renderer spans are forwarded to.
func (b *Bridge) SetRenderer(renderer ports.Renderer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.renderer = renderer
}

func (b *Bridge) current() ports.Renderer {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.renderer
}

// OnStart is called when a span starts.
func (b *Bridge) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	renderer := b.current()
	if renderer == nil {
		return
	}

	sc := s.SpanContext()
	if !sc.IsValid() {
		return
	}

	var parentID string
	if parentSpan := trace.SpanFromContext(parent); parentSpan.SpanContext().IsValid() {
		parentID = parentSpan.SpanContext().SpanID().String()
	}

	renderer.OnTaskStart(sc.SpanID().String(), parentID, s.Name(), s.StartTime())
}

// OnEnd is called when a span ends.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	renderer := b.current()
	if renderer == nil {
		return
	}

	sc := s.SpanContext()
	if !sc.IsValid() {
		return
	}

	var err error
	if s.Status().Code == codes.Error {
		desc := s.Status().Description
		if desc == "" {
			desc = "action failed"
		}
		err = errors.New(desc)
	}

	renderer.OnTaskComplete(sc.SpanID().String(), s.EndTime(), err)
}

// ForceFlush does nothing.
func (b *Bridge) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *Bridge) Shutdown(_ context.Context) error {
	return nil
}
