package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenAI(rt http.RoundTripper) *OpenAIProvider {
	return NewOpenAIProvider("test-key", "", option.WithHTTPClient(&http.Client{Transport: rt}))
}

func TestOpenAIProvider_Call(t *testing.T) {
	resp := `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"created": 1,
		"model": "gpt-4o",
		"choices": [{
			"index": 0,
			"finish_reason": "tool_calls",
			"message": {
				"role": "assistant",
				"content": null,
				"tool_calls": [{"id": "call_1", "type": "function", "function": {"name": "query", "arguments": "{\"sql\":\"select 1\"}"}}]
			}
		}],
		"usage": {"prompt_tokens": 9, "completion_tokens": 3, "total_tokens": 12}
	}`
	captured := &capture{}
	p := newTestOpenAI(&fakeTransport{status: 200, body: []byte(resp), captured: captured})

	history := []Message{
		{Role: RoleUser, Content: []ContentBlock{TextBlock{Text: "list top 5 scorers"}}},
		{Role: RoleAssistant, Content: []ContentBlock{
			TextBlock{Text: "checking"},
			ToolUse{ID: "call_0", Name: "query", Arguments: map[string]interface{}{"sql": "select 0"}},
		}},
		{Role: RoleUser, Content: []ContentBlock{ToolResult{ToolUseID: "call_0", Content: "boom", IsError: true}}},
	}

	out, err := p.Call(context.Background(), LLMRequest{
		Model:     "gpt-4o",
		Messages:  history,
		MaxTokens: 2000,
		Tools:     []ToolDescriptor{{Name: "query", Description: "run sql"}},
	})
	require.NoError(t, err)

	require.Len(t, out.Content, 1)
	use, ok := out.Content[0].(ToolUse)
	require.True(t, ok)
	assert.Equal(t, "call_1", use.ID)
	assert.Equal(t, "select 1", use.Arguments["sql"])
	assert.Equal(t, &TokenUsage{InputTokens: 9, OutputTokens: 3}, out.Usage)

	var body struct {
		Messages []struct {
			Role       string          `json:"role"`
			Content    json.RawMessage `json:"content"`
			ToolCallID string          `json:"tool_call_id"`
			ToolCalls  []struct {
				ID string `json:"id"`
			} `json:"tool_calls"`
		} `json:"messages"`
		Tools []json.RawMessage `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(captured.body, &body))
	require.Len(t, body.Messages, 3)
	assert.Equal(t, "assistant", body.Messages[1].Role)
	require.Len(t, body.Messages[1].ToolCalls, 1)
	assert.Equal(t, "call_0", body.Messages[1].ToolCalls[0].ID)
	assert.Equal(t, "tool", body.Messages[2].Role)
	assert.Equal(t, "call_0", body.Messages[2].ToolCallID)
	assert.Contains(t, string(body.Messages[2].Content), "Error: boom")
	assert.Len(t, body.Tools, 1)
}

func TestToOpenAIMessages_NilArgumentsBecomeEmptyObject(t *testing.T) {
	msg := Message{Role: RoleAssistant, Content: []ContentBlock{ToolUse{ID: "call_1", Name: "list_tables"}}}

	out, err := toOpenAIMessages(msg)
	require.NoError(t, err)
	require.Len(t, out, 1)

	data, err := json.Marshal(out[0])
	require.NoError(t, err)
	var sent struct {
		ToolCalls []struct {
			Function struct {
				Arguments string `json:"arguments"`
			} `json:"function"`
		} `json:"tool_calls"`
	}
	require.NoError(t, json.Unmarshal(data, &sent))
	require.Len(t, sent.ToolCalls, 1)
	assert.Equal(t, "{}", sent.ToolCalls[0].Function.Arguments)
}

func TestOpenAIProvider_TextOnly(t *testing.T) {
	resp := `{"id":"c","object":"chat.completion","created":1,"model":"gpt-4o","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Top scorer: A (30 pts)"}}],"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`
	p := newTestOpenAI(&fakeTransport{status: 200, body: []byte(resp)})

	msg, _ := TextMessage(RoleUser, "hi")
	out, err := p.Call(context.Background(), LLMRequest{Model: "gpt-4o", Messages: []Message{msg}})
	require.NoError(t, err)
	assert.Equal(t, "Top scorer: A (30 pts)", out.Text())
	assert.Empty(t, out.ToolUses())
}

func TestOpenAIProvider_NoChoices(t *testing.T) {
	resp := `{"id":"c","object":"chat.completion","created":1,"model":"gpt-4o","choices":[],"usage":{}}`
	p := newTestOpenAI(&fakeTransport{status: 200, body: []byte(resp)})

	msg, _ := TextMessage(RoleUser, "hi")
	_, err := p.Call(context.Background(), LLMRequest{Model: "gpt-4o", Messages: []Message{msg}})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no response choices")
}
