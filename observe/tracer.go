package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// CallMeta identifies a single tool invocation for telemetry purposes.
type CallMeta struct {
	Tool       string // Tool name, e.g. "firestore_get_document" (required)
	Collection string // Collection path touched by the call (may be empty)
	RequestID  string // Correlation ID for the JSON-RPC request (may be empty)
}

// SpanName returns the deterministic span name for this call.
// Format: firestore.<tool>
func (m CallMeta) SpanName() string {
	return "firestore." + m.Tool
}

// Tracer wraps OpenTelemetry tracing with per-call span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: StartSpan must honor cancellation/deadlines and return ctx.Err() when canceled.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a tool call.
	StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with call metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("tool.name", meta.Tool),
		attribute.Bool("tool.error", false), // Updated in EndSpan on error
	}
	if meta.Collection != "" {
		attrs = append(attrs, attribute.String("firestore.collection", meta.Collection))
	}
	if meta.RequestID != "" {
		attrs = append(attrs, attribute.String("request.id", meta.RequestID))
	}

	ctx, span := t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)

	return ctx, span
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("tool.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

// NewNoopTracer creates a no-op tracer.
func NewNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
