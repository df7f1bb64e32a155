package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider implements LLMProvider for OpenAI
type OpenAIProvider struct {
	client openai.Client
}

// NewOpenAIProvider creates a new OpenAI provider. An empty apiKey falls back
// to OPENAI_API_KEY from the environment.
func NewOpenAIProvider(apiKey, baseURL string, opts ...option.RequestOption) *OpenAIProvider {
	clientOpts := []option.RequestOption{option.WithMaxRetries(0)}
	if apiKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}
	clientOpts = append(clientOpts, opts...)
	return &OpenAIProvider{
		client: openai.NewClient(clientOpts...),
	}
}

// Provider returns the provider name
func (p *OpenAIProvider) Provider() string {
	return "openai"
}

// Call makes an API call to OpenAI
func (p *OpenAIProvider) Call(ctx context.Context, request LLMRequest) (*LLMResponse, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}

	if request.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(request.SystemPrompt))
	}

	for i, msg := range request.Messages {
		converted, err := toOpenAIMessages(msg)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		messages = append(messages, converted...)
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(request.Model),
		Messages: messages,
	}

	if request.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(request.MaxTokens))
	}

	if request.Temperature > 0 {
		params.Temperature = openai.Float(request.Temperature)
	}

	if len(request.Tools) > 0 {
		tools := make([]openai.ChatCompletionToolParam, 0, len(request.Tools))
		for _, tool := range request.Tools {
			schema := tool.InputSchema
			if schema == nil {
				schema = map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
			}
			tools = append(tools, openai.ChatCompletionToolParam{
				Type: "function",
				Function: openai.FunctionDefinitionParam{
					Name:        tool.Name,
					Description: openai.String(tool.Description),
					Parameters:  openai.FunctionParameters(schema),
				},
			})
		}
		params.Tools = tools
	}

	response, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, err
	}

	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no response choices returned")
	}

	choice := response.Choices[0]

	content := []ContentBlock{}
	if choice.Message.Content != "" {
		content = append(content, TextBlock{Text: choice.Message.Content})
	}
	for _, tc := range choice.Message.ToolCalls {
		args, err := decodeArguments([]byte(tc.Function.Arguments))
		if err != nil {
			return nil, fmt.Errorf("failed to parse tool arguments for %s: %w", tc.Function.Name, err)
		}
		content = append(content, ToolUse{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}

	return &LLMResponse{
		Content:    content,
		StopReason: string(choice.FinishReason),
		Usage: &TokenUsage{
			InputTokens:  int(response.Usage.PromptTokens),
			OutputTokens: int(response.Usage.CompletionTokens),
		},
	}, nil
}

// toOpenAIMessages expands one conversation entry. Tool results become one
// "tool" message each, since chat completions has no result blocks.
func toOpenAIMessages(msg Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	var (
		text      strings.Builder
		toolCalls []openai.ChatCompletionMessageToolCall
		results   []openai.ChatCompletionMessageParamUnion
	)

	for _, block := range msg.Content {
		switch b := block.(type) {
		case TextBlock:
			text.WriteString(b.Text)
		case ToolUse:
			args := b.Arguments
			if args == nil {
				args = map[string]interface{}{}
			}
			paramsJSON, err := json.Marshal(args)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal tool parameters: %w", err)
			}
			toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCall{
				ID:   b.ID,
				Type: "function",
				Function: openai.ChatCompletionMessageToolCallFunction{
					Name:      b.Name,
					Arguments: string(paramsJSON),
				},
			})
		case ToolResult:
			body := b.Content
			if b.IsError && !strings.HasPrefix(body, "Error:") {
				body = "Error: " + body
			}
			results = append(results, openai.ToolMessage(body, b.ToolUseID))
		default:
			return nil, fmt.Errorf("unsupported content block %T", block)
		}
	}

	switch msg.Role {
	case RoleUser:
		out := results
		if text.Len() > 0 {
			out = append(out, openai.UserMessage(text.String()))
		}
		return out, nil
	case RoleAssistant:
		if len(toolCalls) > 0 {
			assistantMsg := openai.ChatCompletionMessage{
				Role:      "assistant",
				Content:   text.String(),
				ToolCalls: toolCalls,
			}
			return []openai.ChatCompletionMessageParamUnion{assistantMsg.ToParam()}, nil
		}
		return []openai.ChatCompletionMessageParamUnion{openai.AssistantMessage(text.String())}, nil
	default:
		return nil, fmt.Errorf("unsupported role %q", msg.Role)
	}
}
