package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/harun/mcpilot/pkg/agent"
	"github.com/harun/mcpilot/pkg/artifacts"
	"github.com/harun/mcpilot/pkg/mcp"
)

// fakeSession is an in-process stand-in for a connected MCP server.
type fakeSession struct {
	mu sync.Mutex

	tools    []agent.ToolDescriptor
	toolsErr error

	resources   map[string]string
	readErrs    map[string]error
	listed      []mcp.Resource
	listErr     error
	handler     func(name string, args map[string]interface{}) (*mcp.CallResult, error)
	calls       []string
	readURIs    []string
	listedCalls int
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		tools: []agent.ToolDescriptor{{
			Name:        "query",
			Description: "Run a read-only SQL query",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{"sql": map[string]interface{}{"type": "string"}},
				"required":   []interface{}{"sql"},
			},
		}},
		resources: map[string]string{DefaultSchemaURI: "players(name text, points int)"},
		readErrs:  map[string]error{},
	}
}

func (s *fakeSession) ListTools(context.Context) ([]agent.ToolDescriptor, error) {
	if s.toolsErr != nil {
		return nil, s.toolsErr
	}
	return s.tools, nil
}

func (s *fakeSession) CallTool(_ context.Context, name string, args map[string]interface{}) (*mcp.CallResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, name)
	handler := s.handler
	s.mu.Unlock()

	if handler != nil {
		return handler(name, args)
	}
	return &mcp.CallResult{Content: "A,30\nB,25"}, nil
}

func (s *fakeSession) ReadResource(_ context.Context, uri string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readURIs = append(s.readURIs, uri)
	if err := s.readErrs[uri]; err != nil {
		return "", err
	}
	text, ok := s.resources[uri]
	if !ok {
		return "", fmt.Errorf("resource %s not found", uri)
	}
	return text, nil
}

func (s *fakeSession) ListResources(context.Context) ([]mcp.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listedCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.listed, nil
}

func (s *fakeSession) toolCalls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// captureRecorder keeps every recorded run.
type captureRecorder struct {
	mu   sync.Mutex
	runs []*artifacts.Run
	err  error
}

func (r *captureRecorder) Record(_ context.Context, run *artifacts.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return r.err
}

func (r *captureRecorder) last() *artifacts.Run {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.runs) == 0 {
		return nil
	}
	return r.runs[len(r.runs)-1]
}
