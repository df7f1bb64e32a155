package tracing

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewTraceID(t *testing.T) {
	id1 := NewTraceID()
	id2 := NewTraceID()

	if id1 == "" {
		t.Error("NewTraceID returned empty string")
	}

	if id1 == id2 {
		t.Error("NewTraceID returned duplicate IDs")
	}
}

func TestNewRunID(t *testing.T) {
	id1 := NewRunID()
	id2 := NewRunID()

	if id1 == "" {
		t.Error("NewRunID returned empty string")
	}

	if id1 == id2 {
		t.Error("NewRunID returned duplicate IDs")
	}

	if strings.ContainsAny(id1, "/\\ ") {
		t.Errorf("run ID %q is not file-name safe", id1)
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	ctx = WithTraceID(ctx, "trace-1")
	ctx = WithRunID(ctx, "run-1")
	ctx = WithPhase(ctx, "planning")

	tc := FromContext(ctx)
	if tc.TraceID != "trace-1" || tc.RunID != "run-1" || tc.Phase != "planning" {
		t.Errorf("unexpected trace context: %+v", tc)
	}

	cloned := NewContext(context.Background(), tc)
	if GetRunID(cloned) != "run-1" {
		t.Errorf("expected run ID to survive NewContext, got %q", GetRunID(cloned))
	}
}

func TestGetters_EmptyContext(t *testing.T) {
	ctx := context.Background()
	if GetTraceID(ctx) != "" || GetRunID(ctx) != "" || GetPhase(ctx) != "" {
		t.Error("expected empty values from bare context")
	}
	if NewContext(ctx, nil) != ctx {
		t.Error("NewContext with nil trace context should return ctx unchanged")
	}
}

func TestEnsureIDs(t *testing.T) {
	ctx := EnsureIDs(context.Background())
	if GetTraceID(ctx) == "" || GetRunID(ctx) == "" {
		t.Fatal("EnsureIDs should populate both IDs")
	}

	kept := EnsureIDs(WithRunID(context.Background(), "fixed"))
	if GetRunID(kept) != "fixed" {
		t.Errorf("EnsureIDs overwrote existing run ID: %q", GetRunID(kept))
	}
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := WithPhase(WithRunID(WithTraceID(context.Background(), "t-1"), "r-1"), "execution")
	logger := LoggerFromContext(ctx, base)
	logger.Info().Msg("hello")

	out := buf.String()
	for _, want := range []string{`"trace_id":"t-1"`, `"run_id":"r-1"`, `"phase":"execution"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %s missing %s", out, want)
		}
	}
}
