// Package agenttest provides scripted model providers for tests.
package agenttest

import (
	"context"
	"fmt"
	"sync"

	"github.com/harun/mcpilot/pkg/agent"
)

// ScriptedProvider replays a fixed sequence of responses and records every request.
type ScriptedProvider struct {
	mu        sync.Mutex
	responses []*agent.LLMResponse
	errs      []error
	requests  []agent.LLMRequest

	// Repeat, when set, is returned once the script is exhausted.
	Repeat func(call int) *agent.LLMResponse
}

// NewScriptedProvider creates a provider returning responses in order.
func NewScriptedProvider(responses ...*agent.LLMResponse) *ScriptedProvider {
	return &ScriptedProvider{responses: responses}
}

// FailOn makes the call with the given zero-based index return err.
func (p *ScriptedProvider) FailOn(call int, err error) *ScriptedProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.errs) <= call {
		p.errs = append(p.errs, nil)
	}
	p.errs[call] = err
	return p
}

// Provider returns the provider name
func (p *ScriptedProvider) Provider() string {
	return "scripted"
}

// Call returns the next scripted response.
func (p *ScriptedProvider) Call(ctx context.Context, request agent.LLMRequest) (*agent.LLMResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := len(p.requests)
	snapshot := request
	snapshot.Messages = append([]agent.Message(nil), request.Messages...)
	p.requests = append(p.requests, snapshot)

	if idx < len(p.errs) && p.errs[idx] != nil {
		return nil, p.errs[idx]
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if idx < len(p.responses) {
		return p.responses[idx], nil
	}
	if p.Repeat != nil {
		return p.Repeat(idx), nil
	}
	return nil, fmt.Errorf("scripted provider: no response for call %d", idx)
}

// Calls returns the number of calls made so far.
func (p *ScriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// Requests returns a copy of the recorded requests.
func (p *ScriptedProvider) Requests() []agent.LLMRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]agent.LLMRequest(nil), p.requests...)
}

// Text builds a response with a single text block.
func Text(text string) *agent.LLMResponse {
	return &agent.LLMResponse{
		Content:    []agent.ContentBlock{agent.TextBlock{Text: text}},
		StopReason: "end_turn",
		Usage:      &agent.TokenUsage{InputTokens: 10, OutputTokens: 5},
	}
}

// ToolCall builds a response requesting one tool invocation.
func ToolCall(id, name string, args map[string]interface{}) *agent.LLMResponse {
	return &agent.LLMResponse{
		Content:    []agent.ContentBlock{agent.ToolUse{ID: id, Name: name, Arguments: args}},
		StopReason: "tool_use",
		Usage:      &agent.TokenUsage{InputTokens: 10, OutputTokens: 5},
	}
}

// Blocks builds a response from arbitrary content blocks.
func Blocks(blocks ...agent.ContentBlock) *agent.LLMResponse {
	return &agent.LLMResponse{Content: blocks, Usage: &agent.TokenUsage{}}
}
