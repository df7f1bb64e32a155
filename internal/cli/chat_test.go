package cli

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/harun/mcpilot/pkg/agent"
	"github.com/harun/mcpilot/pkg/planner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoProcessor struct {
	requests []string
}

func (p *echoProcessor) Process(_ context.Context, request string) string {
	p.requests = append(p.requests, request)
	return "answer to " + request
}

func TestChatLoop(t *testing.T) {
	t.Run("stops at quit", func(t *testing.T) {
		input := bufio.NewScanner(strings.NewReader("first\n\n  second  \nQUIT\nnever\n"))
		out := &bytes.Buffer{}
		p := &echoProcessor{}

		require.NoError(t, chatLoop(context.Background(), input, out, p))

		assert.Equal(t, []string{"first", "second"}, p.requests)
		assert.Contains(t, out.String(), "answer to first")
		assert.Contains(t, out.String(), "answer to second")
		assert.NotContains(t, out.String(), "never")
	})

	t.Run("stops at end of input", func(t *testing.T) {
		input := bufio.NewScanner(strings.NewReader("only"))
		p := &echoProcessor{}

		require.NoError(t, chatLoop(context.Background(), input, &bytes.Buffer{}, p))
		assert.Equal(t, []string{"only"}, p.requests)
	})

	t.Run("stops when cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		p := &echoProcessor{}

		require.NoError(t, chatLoop(ctx, bufio.NewScanner(strings.NewReader("q\n")), &bytes.Buffer{}, p))
		assert.Empty(t, p.requests)
	})
}

func TestPrintToolUse(t *testing.T) {
	out := &bytes.Buffer{}
	printToolUse(out)(agent.ToolUse{ID: "t1", Name: "query", Arguments: map[string]interface{}{"sql": "SELECT 1"}})

	assert.Equal(t, "[Calling tool query with args {\"sql\":\"SELECT 1\"}]\n", out.String())
}

func TestReviewPrompt(t *testing.T) {
	plan := &planner.Plan{Document: "# CONTEXT: scorers"}

	tests := []struct {
		name     string
		input    string
		decision planner.ReviewDecision
		document string
		wantErr  bool
	}{
		{"approve by default", "\n", planner.ReviewApprove, "", false},
		{"reject", "n\n", planner.ReviewReject, "", false},
		{"retry on unknown answer", "maybe\nyes\n", planner.ReviewApprove, "", false},
		{"edit", "e\n# CONTEXT: edited\n# OBJECTIVE: x\n.\n", planner.ReviewModify, "# CONTEXT: edited\n# OBJECTIVE: x", false},
		{"eof", "", "", "", true},
		{"eof while editing", "edit\nhalf a plan\n", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			cb := reviewPrompt(bufio.NewScanner(strings.NewReader(tt.input)), out)

			decision, document, err := cb(context.Background(), plan)
			if tt.wantErr {
				assert.ErrorIs(t, err, errInputClosed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.decision, decision)
			assert.Equal(t, tt.document, document)
			assert.Contains(t, out.String(), "# CONTEXT: scorers")
		})
	}
}
