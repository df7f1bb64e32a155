package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/harun/mcpilot/pkg/agent"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
)

// ErrNotConnected is returned by every session operation before Connect succeeds.
var ErrNotConnected = errors.New("mcp: session not connected")

// CallResult is a tool invocation flattened to text.
type CallResult struct {
	Content string
	IsError bool
}

// Resource describes one resource exposed by the server.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MIMEType    string `json:"mime_type,omitempty"`
}

// Client is a single MCP session. Operations are serialized by the
// underlying session; Client itself only guards connect and close.
type Client struct {
	impl    *mcpsdk.Client
	logger  zerolog.Logger
	mu      sync.Mutex
	session *mcpsdk.ClientSession
	target  string
}

// NewClient creates an unconnected client.
func NewClient(logger zerolog.Logger) *Client {
	impl := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "mcpilot", Version: "0.1.0"}, nil)
	return &Client{
		impl:   impl,
		logger: logger.With().Str("component", "mcp").Logger(),
	}
}

// Connect parses spec, builds the transport and performs the handshake.
func (c *Client) Connect(ctx context.Context, spec string) error {
	parsed, err := ParseTransportSpec(spec)
	if err != nil {
		return fmt.Errorf("mcp: %w", err)
	}
	transport, err := BuildTransport(ctx, parsed)
	if err != nil {
		return fmt.Errorf("mcp: build transport: %w", err)
	}
	c.target = spec
	return c.ConnectTransport(ctx, transport)
}

// ConnectTransport performs the handshake over an already built transport.
func (c *Client) ConnectTransport(ctx context.Context, transport mcpsdk.Transport) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return fmt.Errorf("mcp: already connected")
	}

	start := time.Now()
	session, err := c.impl.Connect(nonNilContext(ctx), transport, nil)
	if err != nil {
		return fmt.Errorf("mcp: connect: %w", err)
	}
	c.session = session

	c.logger.Info().
		Str("target", c.target).
		Dur("duration", time.Since(start)).
		Msg("Connected to MCP server")
	return nil
}

func (c *Client) current() (*mcpsdk.ClientSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, ErrNotConnected
	}
	return c.session, nil
}

// ListTools returns the server's tool catalog in server order.
func (c *Client) ListTools(ctx context.Context) ([]agent.ToolDescriptor, error) {
	session, err := c.current()
	if err != nil {
		return nil, err
	}
	var tools []agent.ToolDescriptor
	for tool, err := range session.Tools(nonNilContext(ctx), nil) {
		if err != nil {
			return nil, fmt.Errorf("mcp: list tools: %w", err)
		}
		tools = append(tools, toToolDescriptor(tool))
	}
	return tools, nil
}

// CallTool invokes a tool. A protocol failure is an error; a tool-level
// failure is a CallResult with IsError set.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]interface{}) (*CallResult, error) {
	session, err := c.current()
	if err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	result, err := session.CallTool(nonNilContext(ctx), &mcpsdk.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return nil, fmt.Errorf("mcp: call tool %s: %w", name, err)
	}
	return toCallResult(result), nil
}

// ReadResource returns the text contents of uri joined by newlines.
func (c *Client) ReadResource(ctx context.Context, uri string) (string, error) {
	session, err := c.current()
	if err != nil {
		return "", err
	}
	result, err := session.ReadResource(nonNilContext(ctx), &mcpsdk.ReadResourceParams{URI: uri})
	if err != nil {
		return "", fmt.Errorf("mcp: read resource %s: %w", uri, err)
	}
	parts := make([]string, 0, len(result.Contents))
	for _, content := range result.Contents {
		if content == nil || content.Text == "" {
			continue
		}
		parts = append(parts, content.Text)
	}
	return strings.Join(parts, "\n"), nil
}

// ListResources returns every resource the server advertises.
func (c *Client) ListResources(ctx context.Context) ([]Resource, error) {
	session, err := c.current()
	if err != nil {
		return nil, err
	}
	var resources []Resource
	for res, err := range session.Resources(nonNilContext(ctx), nil) {
		if err != nil {
			return nil, fmt.Errorf("mcp: list resources: %w", err)
		}
		if res == nil {
			continue
		}
		resources = append(resources, Resource{
			URI:         res.URI,
			Name:        res.Name,
			Description: res.Description,
			MIMEType:    res.MIMEType,
		})
	}
	return resources, nil
}

// Close ends the session. Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	return err
}

func toToolDescriptor(tool *mcpsdk.Tool) agent.ToolDescriptor {
	if tool == nil {
		return agent.ToolDescriptor{}
	}
	return agent.ToolDescriptor{
		Name:        tool.Name,
		Description: tool.Description,
		InputSchema: schemaMap(tool.InputSchema),
	}
}

func schemaMap(schema any) map[string]interface{} {
	switch s := schema.(type) {
	case nil:
		return nil
	case map[string]interface{}:
		return s
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func toCallResult(result *mcpsdk.CallToolResult) *CallResult {
	if result == nil {
		return &CallResult{}
	}
	parts := make([]string, 0, len(result.Content))
	for _, content := range result.Content {
		switch c := content.(type) {
		case *mcpsdk.TextContent:
			parts = append(parts, c.Text)
		case nil:
		default:
			raw, err := json.Marshal(c)
			if err != nil {
				continue
			}
			parts = append(parts, string(raw))
		}
	}
	return &CallResult{Content: strings.Join(parts, "\n"), IsError: result.IsError}
}
