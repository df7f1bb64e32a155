package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestStartSpan_PropagatesTraceID(t *testing.T) {
	if err := InitOpenTelemetry("mcpilot-test"); err != nil {
		t.Fatalf("InitOpenTelemetry failed: %v", err)
	}
	// Safe to call twice.
	if err := InitOpenTelemetry("mcpilot-test"); err != nil {
		t.Fatalf("second InitOpenTelemetry failed: %v", err)
	}

	ctx, span := StartSpan(context.Background(), "test", "unit", attribute.String("k", "v"))
	defer EndSpan(span, nil)

	if !span.SpanContext().IsValid() {
		t.Fatal("expected a valid span context")
	}
	if GetTraceID(ctx) != span.SpanContext().TraceID().String() {
		t.Errorf("trace ID %q not propagated from span", GetTraceID(ctx))
	}

	_, child := StartSpan(WithTraceID(context.Background(), "preset"), "test", "child")
	EndSpan(child, errors.New("boom"))
}
