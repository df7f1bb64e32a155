package toolexecutor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/harun/mcpilot/internal/observability"
	"github.com/harun/mcpilot/internal/tracing"
	"github.com/harun/mcpilot/pkg/agent"
	"github.com/harun/mcpilot/pkg/mcp"
	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel/attribute"
)

const truncationMarker = "\n... [output truncated]"

// ToolCaller is the slice of an MCP session the dispatcher needs.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallResult, error)
}

// Config tunes dispatch behaviour. The zero value forwards every call unchecked.
type Config struct {
	ValidateArguments bool
	Timeout           time.Duration // per call; zero means none
	MaxOutputBytes    int           // zero means unlimited
	Policy            *ToolPolicy
}

// ToolExecutor forwards tool-use requests to a ToolCaller.
type ToolExecutor struct {
	caller ToolCaller
	cfg    Config
	logger zerolog.Logger

	mu      sync.RWMutex
	schemas map[string]*gojsonschema.Schema
}

// New creates a dispatcher over caller.
func New(caller ToolCaller, cfg Config, logger zerolog.Logger) *ToolExecutor {
	return &ToolExecutor{
		caller:  caller,
		cfg:     cfg,
		logger:  logger.With().Str("component", "toolexecutor").Logger(),
		schemas: make(map[string]*gojsonschema.Schema),
	}
}

// RegisterCatalog compiles input schemas for argument validation and returns
// the names of tools whose schema could not be compiled. Those tools are
// still dispatched, just unchecked.
func (te *ToolExecutor) RegisterCatalog(tools []agent.ToolDescriptor) []string {
	compiled := make(map[string]*gojsonschema.Schema, len(tools))
	var skipped []string

	for _, tool := range tools {
		if tool.InputSchema == nil {
			continue
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(tool.InputSchema))
		if err != nil {
			te.logger.Warn().Err(err).Str("tool", tool.Name).Msg("Input schema does not compile, arguments will not be checked")
			skipped = append(skipped, tool.Name)
			continue
		}
		compiled[tool.Name] = schema
	}

	te.mu.Lock()
	te.schemas = compiled
	te.mu.Unlock()

	return skipped
}

// ValidateArguments checks args against the registered schema for name.
// Tools without a compiled schema always pass.
func (te *ToolExecutor) ValidateArguments(name string, args map[string]interface{}) error {
	te.mu.RLock()
	schema := te.schemas[name]
	te.mu.RUnlock()

	if schema == nil {
		return nil
	}
	if args == nil {
		args = map[string]interface{}{}
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return err
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return fmt.Errorf("invalid arguments: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Dispatch runs one tool-use request. The returned result always carries use.ID.
func (te *ToolExecutor) Dispatch(ctx context.Context, use agent.ToolUse) agent.ToolResult {
	ctx, span := tracing.StartSpan(ctx, "mcpilot/toolexecutor", "toolexecutor.dispatch",
		attribute.String("tool.name", use.Name),
		attribute.String("tool.use_id", use.ID),
	)
	start := time.Now()
	logger := tracing.LoggerFromContext(ctx, te.logger)

	result, status, err := te.dispatch(ctx, use)
	duration := time.Since(start)

	observability.RecordToolAudit(ctx, use.Name, tracing.GetRunID(ctx), status, map[string]interface{}{
		"duration_ms":  duration.Milliseconds(),
		"result_bytes": len(result.Content),
	})
	observability.RecordToolDispatch(use.Name, duration, !result.IsError)

	logger.Debug().
		Str("tool", use.Name).
		Str("tool_use_id", use.ID).
		Int("arg_bytes", argumentSize(use.Arguments)).
		Int("result_bytes", len(result.Content)).
		Bool("is_error", result.IsError).
		Dur("duration", duration).
		Msg("Tool dispatched")

	tracing.EndSpan(span, err)
	return result
}

// dispatch returns the result, an audit status and the underlying failure, if any.
func (te *ToolExecutor) dispatch(ctx context.Context, use agent.ToolUse) (agent.ToolResult, string, error) {
	if !te.cfg.Policy.IsToolAllowed(use.Name) {
		err := fmt.Errorf("tool '%s' is not allowed by policy", use.Name)
		return errorResult(use.ID, err), "rejected", err
	}

	if te.cfg.ValidateArguments {
		if err := te.ValidateArguments(use.Name, use.Arguments); err != nil {
			return errorResult(use.ID, err), "rejected", err
		}
	}

	if te.caller == nil {
		err := fmt.Errorf("no tool session available")
		return errorResult(use.ID, err), "failure", err
	}

	callCtx := ctx
	if te.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, te.cfg.Timeout)
		defer cancel()
	}

	args := use.Arguments
	if args == nil {
		args = map[string]interface{}{}
	}

	res, err := te.caller.CallTool(callCtx, use.Name, args)
	if err != nil {
		return errorResult(use.ID, err), "failure", err
	}
	if res == nil {
		res = &mcp.CallResult{}
	}

	status := "success"
	if res.IsError {
		status = "failure"
	}
	return agent.ToolResult{
		ToolUseID: use.ID,
		Content:   te.truncate(res.Content),
		IsError:   res.IsError,
	}, status, nil
}

func (te *ToolExecutor) truncate(content string) string {
	limit := te.cfg.MaxOutputBytes
	if limit <= 0 || len(content) <= limit {
		return content
	}
	te.logger.Warn().
		Int("original", len(content)).
		Int("truncated", limit).
		Msg("Tool output truncated")
	cut := limit
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + truncationMarker
}

func errorResult(id string, err error) agent.ToolResult {
	return agent.ToolResult{
		ToolUseID: id,
		Content:   "Error: " + err.Error(),
		IsError:   true,
	}
}

func argumentSize(args map[string]interface{}) int {
	if len(args) == 0 {
		return 0
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return 0
	}
	return len(raw)
}
