package planner

import (
	"time"

	"github.com/harun/mcpilot/pkg/agent"
)

// Plan is the sectioned plan produced once per request. Document is opaque
// text and is never parsed beyond a section-presence check for logging.
type Plan struct {
	ID        string            `json:"id"`
	Request   string            `json:"request"`
	Document  string            `json:"document"`
	CreatedAt time.Time         `json:"created_at"`
	Usage     *agent.TokenUsage `json:"usage,omitempty"`
}

// State of the execution loop.
type State string

const (
	StateRunning State = "running"
	StateDone    State = "done"
)

// NoTextResponse is the answer when the final model response has no text.
const NoTextResponse = "No text response received."

// ExecutionResult describes one completed execution loop.
type ExecutionResult struct {
	Answer     string            `json:"answer"`
	Iterations int               `json:"iterations"`
	ToolCalls  int               `json:"tool_calls"`
	ToolErrors int               `json:"tool_errors"`
	State      State             `json:"state"`
	Truncated  bool              `json:"truncated"` // stopped by the iteration bound
	History    []agent.Message   `json:"history"`
	Usage      *agent.TokenUsage `json:"usage,omitempty"`
	Duration   time.Duration     `json:"duration"`
}
