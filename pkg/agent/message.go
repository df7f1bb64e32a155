package agent

import (
	"fmt"
	"strings"
)

// Role tags a conversation entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ContentBlock is one unit of a message payload. The set of implementations is
// closed: TextBlock, ToolUse and ToolResult.
type ContentBlock interface {
	blockType() string
}

// TextBlock carries plain text.
type TextBlock struct {
	Text string `json:"text"`
}

// ToolUse is a model request to invoke a tool. ID is issued by the model and
// must be echoed back in the matching ToolResult.
type ToolUse struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"input"`
}

// ToolResult answers a ToolUse with the same correlation id.
type ToolResult struct {
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
	IsError   bool   `json:"is_error,omitempty"`
}

func (TextBlock) blockType() string  { return "text" }
func (ToolUse) blockType() string    { return "tool_use" }
func (ToolResult) blockType() string { return "tool_result" }

// BlockType returns the wire discriminant of a block ("text", "tool_use", "tool_result").
func BlockType(b ContentBlock) string {
	if b == nil {
		return ""
	}
	return b.blockType()
}

// Message is a role-tagged conversation entry.
type Message struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}

// NewMessage builds a message from any sequence of content blocks.
func NewMessage(role Role, content ...ContentBlock) (Message, error) {
	if strings.TrimSpace(string(role)) == "" {
		return Message{}, fmt.Errorf("message role cannot be empty")
	}
	blocks := make([]ContentBlock, len(content))
	copy(blocks, content)
	return Message{Role: role, Content: blocks}, nil
}

// TextMessage builds a single-text-block message.
func TextMessage(role Role, text string) (Message, error) {
	return NewMessage(role, TextBlock{Text: text})
}

// ExtractText concatenates the text of every TextBlock in order.
func ExtractText(blocks []ContentBlock) string {
	var sb strings.Builder
	for _, block := range blocks {
		switch b := block.(type) {
		case TextBlock:
			sb.WriteString(b.Text)
		case ToolUse, ToolResult:
		}
	}
	return sb.String()
}

// ToolUses returns the tool-use blocks in the order they appear.
func ToolUses(blocks []ContentBlock) []ToolUse {
	var uses []ToolUse
	for _, block := range blocks {
		switch b := block.(type) {
		case ToolUse:
			uses = append(uses, b)
		case TextBlock, ToolResult:
		}
	}
	return uses
}

// ToolResultBlocks converts results into content blocks preserving order.
func ToolResultBlocks(results []ToolResult) []ContentBlock {
	blocks := make([]ContentBlock, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, r)
	}
	return blocks
}
