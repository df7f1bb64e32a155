package planner

import (
	"context"
	"time"

	"github.com/harun/mcpilot/internal/observability"
	"github.com/harun/mcpilot/pkg/agent"
)

// callModel performs one gateway call and records its metrics. Errors are
// returned untouched; callers attach the phase.
func callModel(ctx context.Context, provider agent.LLMProvider, phase string, req agent.LLMRequest) (*agent.LLMResponse, error) {
	start := time.Now()
	resp, err := provider.Call(ctx, req)
	observability.RecordModelCall(provider.Provider(), phase, time.Since(start), err == nil)
	if err != nil {
		return nil, err
	}
	if resp.Usage != nil {
		observability.RecordTokens(provider.Provider(), resp.Usage.InputTokens, resp.Usage.OutputTokens)
	}
	return resp, nil
}
