package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestPolicyMeta_SpanNameWithNamespace verifies span name includes namespace.
func TestPolicyMeta_SpanNameWithNamespace(t *testing.T) {
	meta := PolicyMeta{
		Namespace: "gh",
		Name:      "issue",
	}

	expected := "resilience.exec.gh.issue"
	if got := meta.SpanName(); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

// TestPolicyMeta_SpanNameWithoutNamespace verifies span name without namespace.
func TestPolicyMeta_SpanNameWithoutNamespace(t *testing.T) {
	meta := PolicyMeta{
		Namespace: "",
		Name:      "read",
	}

	expected := "resilience.exec.read"
	if got := meta.SpanName(); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

// TestPolicyMeta_ID verifies ID generation with and without namespace.
func TestPolicyMeta_ID(t *testing.T) {
	tests := []struct {
		name     string
		meta     PolicyMeta
		expected string
	}{
		{
			name:     "with namespace",
			meta:     PolicyMeta{Namespace: "github", Name: "create_issue"},
			expected: "github.create_issue",
		},
		{
			name:     "without namespace",
			meta:     PolicyMeta{Namespace: "", Name: "read_file"},
			expected: "read_file",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.meta.PolicyID(); got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

// TestTracer_SpanAttributes verifies all attributes are present on span.
func TestTracer_SpanAttributes(t *testing.T) {
	// Set up in-memory span recorder
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")

	tr := &tracerImpl{tracer: tracer}
	meta := PolicyMeta{
		ID:        "github.create_issue",
		Namespace: "github",
		Name:      "create_issue",
		Version:   "1.0.0",
		Tags:      []string{"api", "github"},
		Category:  "integration",
	}

	ctx, span := tr.StartSpan(context.Background(), meta)
	tr.EndSpan(span, nil)
	_ = ctx // Suppress unused warning

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	s := spans[0]

	// Verify span name
	if s.Name() != "resilience.exec.github.create_issue" {
		t.Errorf("expected span name 'resilience.exec.github.create_issue', got %q", s.Name())
	}

	// Verify attributes
	attrs := s.Attributes()
	attrMap := make(map[string]attribute.Value)
	for _, a := range attrs {
		attrMap[string(a.Key)] = a.Value
	}

	// Required attributes
	if v, ok := attrMap["policy.id"]; !ok || v.AsString() != "github.create_issue" {
		t.Errorf("expected policy.id='github.create_issue', got %v", v)
	}
	if v, ok := attrMap["policy.namespace"]; !ok || v.AsString() != "github" {
		t.Errorf("expected policy.namespace='github', got %v", v)
	}
	if v, ok := attrMap["policy.name"]; !ok || v.AsString() != "create_issue" {
		t.Errorf("expected policy.name='create_issue', got %v", v)
	}
	if v, ok := attrMap["policy.error"]; !ok || v.AsBool() != false {
		t.Errorf("expected policy.error=false, got %v", v)
	}

	// Optional attributes
	if v, ok := attrMap["policy.version"]; !ok || v.AsString() != "1.0.0" {
		t.Errorf("expected policy.version='1.0.0', got %v", v)
	}
	if v, ok := attrMap["policy.category"]; !ok || v.AsString() != "integration" {
		t.Errorf("expected policy.category='integration', got %v", v)
	}
}

// TestTracer_SpanAttributesMinimal verifies only required attributes when minimal meta.
func TestTracer_SpanAttributesMinimal(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")

	tr := &tracerImpl{tracer: tracer}
	meta := PolicyMeta{
		Name: "read_file",
	}

	ctx, span := tr.StartSpan(context.Background(), meta)
	tr.EndSpan(span, nil)
	_ = ctx

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	s := spans[0]
	attrs := s.Attributes()
	attrMap := make(map[string]attribute.Value)
	for _, a := range attrs {
		attrMap[string(a.Key)] = a.Value
	}

	// Required attributes should be present
	if _, ok := attrMap["policy.id"]; !ok {
		t.Error("expected policy.id attribute")
	}
	if _, ok := attrMap["policy.name"]; !ok {
		t.Error("expected policy.name attribute")
	}
	if _, ok := attrMap["policy.error"]; !ok {
		t.Error("expected policy.error attribute")
	}

	// Optional attributes should NOT be present when empty
	if v, ok := attrMap["policy.version"]; ok && v.AsString() != "" {
		t.Errorf("expected no policy.version, got %v", v)
	}
	if v, ok := attrMap["policy.category"]; ok && v.AsString() != "" {
		t.Errorf("expected no policy.category, got %v", v)
	}
}

// TestTracer_ContextPropagation verifies parent span is propagated.
func TestTracer_ContextPropagation(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")

	tr := &tracerImpl{tracer: tracer}
	meta := PolicyMeta{Name: "child_tool"}

	// Create parent span
	parentCtx, parentSpan := tracer.Start(context.Background(), "parent")

	// Create child span through our tracer
	childCtx, childSpan := tr.StartSpan(parentCtx, meta)
	tr.EndSpan(childSpan, nil)
	parentSpan.End()
	_ = childCtx

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}

	// Find the child span (the one with resilience.exec prefix)
	var child sdktrace.ReadOnlySpan
	for _, s := range spans {
		if s.Name() == "resilience.exec.child_tool" {
			child = s
			break
		}
	}
	if child == nil {
		t.Fatal("child span not found")
	}

	// Verify parent-child relationship
	if child.Parent().TraceID() != parentSpan.SpanContext().TraceID() {
		t.Error("child span should have same trace ID as parent")
	}
	if !child.Parent().SpanID().IsValid() {
		t.Error("child span should have valid parent span ID")
	}
}

// TestTracer_ErrorRecording verifies error sets span status and attribute.
func TestTracer_ErrorRecording(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")

	tr := &tracerImpl{tracer: tracer}
	meta := PolicyMeta{Name: "failing_tool"}

	ctx, span := tr.StartSpan(context.Background(), meta)
	testErr := errors.New("execution failed")
	tr.EndSpan(span, testErr)
	_ = ctx

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	s := spans[0]

	// Verify error status
	if s.Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", s.Status().Code)
	}

	// Verify policy.error attribute
	attrs := s.Attributes()
	var toolError bool
	for _, a := range attrs {
		if string(a.Key) == "policy.error" {
			toolError = a.Value.AsBool()
			break
		}
	}
	if !toolError {
		t.Error("expected policy.error=true")
	}
}
