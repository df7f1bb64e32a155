package agent

import (
	"context"
	"fmt"
)

// LLMProvider is an interface for LLM API providers
type LLMProvider interface {
	// Call makes a single LLM API call. Implementations do not retry.
	Call(ctx context.Context, request LLMRequest) (*LLMResponse, error)

	// Provider returns the provider name
	Provider() string
}

// LLMRequest contains the request parameters for LLM call
type LLMRequest struct {
	Model        string
	Messages     []Message
	Tools        []ToolDescriptor // empty means the model cannot request tools
	Temperature  float64
	MaxTokens    int
	SystemPrompt string
}

// LLMResponse contains the response from LLM
type LLMResponse struct {
	Content    []ContentBlock
	StopReason string
	Usage      *TokenUsage
}

// Text returns the concatenated text blocks of the response.
func (r *LLMResponse) Text() string {
	if r == nil {
		return ""
	}
	return ExtractText(r.Content)
}

// ToolUses returns the tool-use blocks of the response in order.
func (r *LLMResponse) ToolUses() []ToolUse {
	if r == nil {
		return nil
	}
	return ToolUses(r.Content)
}

// ProviderFactory creates LLM providers
type ProviderFactory struct{}

// NewProvider creates a new LLM provider based on auth profile
func (f *ProviderFactory) NewProvider(profile AuthProfile) (LLMProvider, error) {
	switch profile.Provider {
	case "anthropic", "":
		return NewAnthropicProvider(profile.APIKey, profile.BaseURL), nil
	case "openai":
		return NewOpenAIProvider(profile.APIKey, profile.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", profile.Provider)
	}
}
