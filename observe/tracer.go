package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// KernelMeta contains metadata about one kernel for telemetry purposes.
type KernelMeta struct {
	FuncID    string // Canonical function identifier (required)
	Base      string // Operation base name, e.g. "gemm" (optional)
	Subfolder string // Artifact subfolder under the build root (optional)
}

// SpanName returns the deterministic span name for this kernel.
// Format: kernel.invoke.<funcID>
func (m KernelMeta) SpanName() string {
	return "kernel.invoke." + m.FuncID
}

// Tracer wraps OpenTelemetry tracing with kernel-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: StartSpan must honor cancellation/deadlines.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a kernel invocation.
	StartSpan(ctx context.Context, meta KernelMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// newTracer creates a new Tracer wrapping the given OpenTelemetry tracer.
func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with kernel metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta KernelMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("kernel.func_id", meta.FuncID),
		attribute.Bool("kernel.error", false), // Updated in EndSpan if error
	}
	if meta.Base != "" {
		attrs = append(attrs, attribute.String("kernel.base", meta.Base))
	}
	if meta.Subfolder != "" {
		attrs = append(attrs, attribute.String("kernel.subfolder", meta.Subfolder))
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
		span.SetAttributes(attribute.Bool("kernel.error", true))
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

// newNoopTracer creates a no-op tracer.
func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta KernelMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
