package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// PolicyMeta contains metadata about a resilience policy for telemetry purposes.
type PolicyMeta struct {
	ID        string   // Fully qualified policy ID (namespace.name or just name)
	Namespace string   // Policy namespace (may be empty)
	Name      string   // Policy name (required)
	Version   string   // Policy version (optional)
	Tags      []string // Policy tags for discovery (optional)
	Category  string   // Policy category (optional)
}

// SpanName returns the deterministic span name for this policy.
// Format: resilience.exec.<namespace>.<name> or resilience.exec.<name>
func (m PolicyMeta) SpanName() string {
	if m.Namespace != "" {
		return "resilience.exec." + m.Namespace + "." + m.Name
	}
	return "resilience.exec." + m.Name
}

// PolicyID returns the fully qualified policy identifier.
// If ID field is set, returns it. Otherwise constructs from namespace and name.
func (m PolicyMeta) PolicyID() string {
	if m.ID != "" {
		return m.ID
	}
	if m.Namespace != "" {
		return m.Namespace + "." + m.Name
	}
	return m.Name
}

// Tracer wraps OpenTelemetry tracing with policy-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: StartSpan derives the span's context from ctx; it has no error result and does not check ctx for cancellation.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for policy execution.
	StartSpan(ctx context.Context, meta PolicyMeta) (context.Context, trace.Span)

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

// StartSpan starts a new span with policy metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta PolicyMeta) (context.Context, trace.Span) {
	spanName := meta.SpanName()

	// Build attributes
	attrs := []attribute.KeyValue{
		attribute.String("policy.id", meta.PolicyID()),
		attribute.String("policy.name", meta.Name),
		attribute.Bool("policy.error", false), // Will be updated in EndSpan if error
	}

	// Add namespace if present
	if meta.Namespace != "" {
		attrs = append(attrs, attribute.String("policy.namespace", meta.Namespace))
	}

	// Add optional attributes if present
	if meta.Version != "" {
		attrs = append(attrs, attribute.String("policy.version", meta.Version))
	}
	if meta.Category != "" {
		attrs = append(attrs, attribute.String("policy.category", meta.Category))
	}
	if len(meta.Tags) > 0 {
		attrs = append(attrs, attribute.StringSlice("policy.tags", meta.Tags))
	}

	ctx, span := t.tracer.Start(ctx, spanName,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)

	return ctx, span
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("policy.error", true))
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

func (t *noopTracer) StartSpan(ctx context.Context, meta PolicyMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
