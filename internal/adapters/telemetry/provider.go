// Package telemetry traces every dispatched action with OpenTelemetry and
// forwards the spans and their output to the active renderer.
package telemetry

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/bake/internal/core/ports"
)

var (
	_ ports.Tracer = (*OTelTracer)(nil)
	_ ports.Span   = (*OTelSpan)(nil)
)

// KindAttribute is the span attribute carrying the action kind.
const KindAttribute = "bake.kind"

// OTelTracer implements ports.Tracer on an SDK tracer provider whose only
// span processor is a Bridge to the renderer.
type OTelTracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	bridge   *Bridge

	mu       sync.RWMutex
	renderer ports.Renderer
}

// NewOTelTracer creates a tracer with the given instrumentation name and
// installs its provider as the global one.
func NewOTelTracer(name string) *OTelTracer {
	bridge := NewBridge(nil)
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(bridge))
	otel.SetTracerProvider(tp)

	return &OTelTracer{
		provider: tp,
		tracer:   tp.Tracer(name),
		bridge:   bridge,
	}
}

// WithRenderer routes span lifecycles and action output to renderer.
// A nil renderer detaches the current one.
func (t *OTelTracer) WithRenderer(renderer ports.Renderer) *OTelTracer {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.renderer = renderer
	t.bridge.SetRenderer(renderer)
	return t
}

// Shutdown flushes and stops the tracer provider.
func (t *OTelTracer) Shutdown(ctx context.Context) error {
	return t.provider.Shutdown(ctx)
}

// Start creates a new span.
func (t *OTelTracer) Start(ctx context.Context, name string, opts ...ports.SpanOption) (context.Context, ports.Span) {
	cfg := &ports.SpanConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	var startOpts []trace.SpanStartOption
	if cfg.Kind != "" {
		startOpts = append(startOpts, trace.WithAttributes(attribute.String(KindAttribute, cfg.Kind)))
	}
	ctx, span := t.tracer.Start(ctx, name, startOpts...)

	t.mu.RLock()
	renderer := t.renderer
	t.mu.RUnlock()

	var out *OutputBuffer
	if renderer != nil {
		spanID := span.SpanContext().SpanID().String()
		out = NewOutputBuffer(0, 0, func(data []byte) {
			renderer.OnTaskLog(spanID, data)
		})
	}

	return ctx, &OTelSpan{span: span, out: out}
}

// EmitPlan records the targets of the run on the current span and announces them to the renderer.
func (t *OTelTracer) EmitPlan(ctx context.Context, targets []string) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("plan_emitted", trace.WithAttributes(
			attribute.StringSlice("targets", targets),
		))
	}

	t.mu.RLock()
	renderer := t.renderer
	t.mu.RUnlock()

	if renderer != nil {
		renderer.OnPlanEmit(targets)
	}
}

// OTelSpan is a concrete implementation of ports.Span using OpenTelemetry.
type OTelSpan struct {
	span trace.Span
	out  *OutputBuffer
}

// End flushes buffered output and completes the span.
func (s *OTelSpan) End() {
	if s.out != nil {
		_ = s.out.Close()
	}
	s.span.End()
}

// RecordError records an error for the span and marks it failed.
func (s *OTelSpan) RecordError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// SetAttribute adds a key-value pair to the span.
func (s *OTelSpan) SetAttribute(key string, value any) {
	switch v := value.(type) {
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case float64:
		s.span.SetAttributes(attribute.Float64(key, v))
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	case []string:
		s.span.SetAttributes(attribute.StringSlice(key, v))
	default:
		s.span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", v)))
	}
}

// Write streams action output to the renderer, or records it as a span event when none is attached.
func (s *OTelSpan) Write(p []byte) (n int, err error) {
	if s.out != nil {
		return s.out.Write(p)
	}
	s.span.AddEvent("log", trace.WithAttributes(attribute.String("message", string(p))))
	return len(p), nil
}
