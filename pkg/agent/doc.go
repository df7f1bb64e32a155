// Package agent defines conversation messages and the model gateway.
//
// Invariants:
// - ContentBlock is a closed union of TextBlock, ToolUse and ToolResult.
// - A ToolResult carries the ID of the ToolUse it answers, verbatim.
// - Providers make exactly one API call per Call and never retry.
//
// Usage:
//
//	provider := agent.NewAnthropicProvider("", "")
//	msg, _ := agent.TextMessage(agent.RoleUser, "hello")
//	resp, _ := provider.Call(ctx, agent.LLMRequest{
//		Model:     agent.DefaultModel,
//		Messages:  []agent.Message{msg},
//		MaxTokens: 1000,
//	})
//	fmt.Println(resp.Text())
package agent
