package agent

import (
	"encoding/json"
	"fmt"
)

// ToolDescriptor is a snapshot of one tool's calling contract as exposed by the session.
type ToolDescriptor struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

// TokenUsage tracks token consumption
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Add accumulates another usage report into u.
func (u *TokenUsage) Add(other *TokenUsage) {
	if u == nil || other == nil {
		return
	}
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// AuthProfile represents credentials for an LLM provider
type AuthProfile struct {
	ID       string `json:"id"`
	Provider string `json:"provider"` // "anthropic", "openai"
	APIKey   string `json:"api_key"`
	BaseURL  string `json:"base_url,omitempty"`
}

// DefaultModel is used when no model id is configured.
const DefaultModel = "claude-3-5-sonnet-20241022"

type wireBlock struct {
	Type      string                 `json:"type"`
	Text      string                 `json:"text,omitempty"`
	ID        string                 `json:"id,omitempty"`
	Name      string                 `json:"name,omitempty"`
	Input     map[string]interface{} `json:"input,omitempty"`
	ToolUseID string                 `json:"tool_use_id,omitempty"`
	Content   string                 `json:"content,omitempty"`
	IsError   bool                   `json:"is_error,omitempty"`
}

// MarshalJSON renders content blocks with an explicit "type" discriminant.
func (m Message) MarshalJSON() ([]byte, error) {
	blocks := make([]wireBlock, 0, len(m.Content))
	for _, block := range m.Content {
		switch b := block.(type) {
		case TextBlock:
			blocks = append(blocks, wireBlock{Type: BlockType(b), Text: b.Text})
		case ToolUse:
			blocks = append(blocks, wireBlock{Type: BlockType(b), ID: b.ID, Name: b.Name, Input: b.Arguments})
		case ToolResult:
			blocks = append(blocks, wireBlock{Type: BlockType(b), ToolUseID: b.ToolUseID, Content: b.Content, IsError: b.IsError})
		default:
			return nil, fmt.Errorf("unknown content block %T", block)
		}
	}
	return json.Marshal(struct {
		Role    Role        `json:"role"`
		Content []wireBlock `json:"content"`
	}{Role: m.Role, Content: blocks})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role    Role        `json:"role"`
		Content []wireBlock `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Role = raw.Role
	m.Content = make([]ContentBlock, 0, len(raw.Content))
	for i, b := range raw.Content {
		switch b.Type {
		case "text":
			m.Content = append(m.Content, TextBlock{Text: b.Text})
		case "tool_use":
			m.Content = append(m.Content, ToolUse{ID: b.ID, Name: b.Name, Arguments: b.Input})
		case "tool_result":
			m.Content = append(m.Content, ToolResult{ToolUseID: b.ToolUseID, Content: b.Content, IsError: b.IsError})
		default:
			return fmt.Errorf("content block %d: unknown type %q", i, b.Type)
		}
	}
	return nil
}
