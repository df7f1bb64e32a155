package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/harun/mcpilot/pkg/agent"
	"github.com/harun/mcpilot/pkg/artifacts"
	"github.com/stretchr/testify/assert"
)

func TestPrintRuns(t *testing.T) {
	out := &bytes.Buffer{}
	printRuns(out, nil)
	assert.Equal(t, "No runs recorded.\n", out.String())

	out.Reset()
	printRuns(out, []artifacts.RunSummary{
		{ID: "abc", Request: "who\nscored most?", Iterations: 2, ToolCalls: 1, StartedAt: time.Now(), Duration: 1500 * time.Millisecond},
		{ID: "def", Request: "broken", Error: "boom", StartedAt: time.Now()},
		{ID: "ghi", Request: "long", Truncated: true, StartedAt: time.Now()},
	})

	text := out.String()
	assert.Contains(t, text, "RUN")
	assert.Contains(t, text, "who scored most?")
	assert.Contains(t, text, "error")
	assert.Contains(t, text, "truncated")
	assert.Contains(t, text, "2s")
}

func TestPrintRun(t *testing.T) {
	out := &bytes.Buffer{}
	printRun(out, &artifacts.RunSummary{
		ID:      "abc",
		Request: "top scorer",
		Plan:    "# CONTEXT: x",
		Answer:  "A (30 pts)",
	})
	assert.Contains(t, out.String(), "Plan:\n# CONTEXT: x")
	assert.Contains(t, out.String(), "Answer:\nA (30 pts)")

	out.Reset()
	printRun(out, &artifacts.RunSummary{ID: "def", Error: "Error in planning phase: down"})
	assert.Contains(t, out.String(), "Error:\nError in planning phase: down")
	assert.NotContains(t, out.String(), "Answer:")
}

func TestPrintTranscript(t *testing.T) {
	assistant := agent.Message{Role: agent.RoleAssistant, Content: []agent.ContentBlock{
		agent.TextBlock{Text: "Looking up"},
		agent.ToolUse{ID: "t1", Name: "query", Arguments: map[string]interface{}{"sql": "SELECT 1"}},
	}}
	results := agent.Message{Role: agent.RoleUser, Content: []agent.ContentBlock{
		agent.ToolResult{ToolUseID: "t1", Content: "Error: timeout", IsError: true},
	}}

	out := &bytes.Buffer{}
	printTranscript(out, []artifacts.TranscriptEntry{
		{Kind: artifacts.EntryRequest, Text: "q"},
		{Kind: artifacts.EntryMessage, Message: &assistant},
		{Kind: artifacts.EntryMessage, Message: &results},
	})

	text := out.String()
	assert.Contains(t, text, "[assistant] Looking up")
	assert.Contains(t, text, "[assistant] tool_use t1 query")
	assert.Contains(t, text, "[user] tool_result t1 (error) Error: timeout")
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"milliseconds", 250 * time.Millisecond, "250ms"},
		{"seconds only", 45 * time.Second, "45s"},
		{"minutes and seconds", 2*time.Minute + 30*time.Second, "2m30s"},
		{"hours minutes seconds", 3*time.Hour + 15*time.Minute + 20*time.Second, "3h15m20s"},
		{"zero", 0, "0ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatDuration(tt.duration))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
