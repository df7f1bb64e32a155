package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/harun/mcpilot/internal/observability"
	"github.com/harun/mcpilot/internal/tracing"
	"github.com/harun/mcpilot/pkg/agent"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultExecutionMaxTokens = 2000
	DefaultMaxIterations      = 10
)

// Dispatcher runs one tool-use request and always yields a result.
type Dispatcher interface {
	Dispatch(ctx context.Context, use agent.ToolUse) agent.ToolResult
}

// ExecutorConfig configures the execution loop.
type ExecutorConfig struct {
	Model         string
	MaxTokens     int
	MaxIterations int // model calls per request
	Temperature   float64

	// OnToolUse, if set, is called before each dispatch.
	OnToolUse func(use agent.ToolUse)
}

// Executor runs the bounded model/tool loop that turns a plan into an answer.
type Executor struct {
	provider   agent.LLMProvider
	dispatcher Dispatcher
	cfg        ExecutorConfig
	logger     zerolog.Logger
}

// NewExecutor creates an executor. Zero config fields fall back to defaults.
func NewExecutor(provider agent.LLMProvider, dispatcher Dispatcher, cfg ExecutorConfig, logger zerolog.Logger) *Executor {
	if cfg.Model == "" {
		cfg.Model = agent.DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultExecutionMaxTokens
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	return &Executor{
		provider:   provider,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger.With().Str("component", "executor").Logger(),
	}
}

// Execute seeds a conversation with request and plan, then alternates model
// calls and sequential tool dispatches until a response carries no tool use
// or MaxIterations calls have been made. Tool failures never abort the loop;
// model failures do, wrapped in a *PhaseError.
func (e *Executor) Execute(ctx context.Context, request string, plan *Plan, catalog []agent.ToolDescriptor) (*ExecutionResult, error) {
	ctx = tracing.WithPhase(ctx, PhaseExecution)
	ctx, span := tracing.StartSpan(ctx, "mcpilot/planner", "planner.execute",
		attribute.Int("catalog.size", len(catalog)),
		attribute.Int("max_iterations", e.cfg.MaxIterations),
	)
	logger := tracing.LoggerFromContext(ctx, e.logger)

	result, err := e.execute(ctx, request, plan, catalog, logger)
	if result != nil {
		span.SetAttributes(
			attribute.Int("iterations", result.Iterations),
			attribute.Int("tool_calls", result.ToolCalls),
			attribute.Bool("truncated", result.Truncated),
		)
	}
	tracing.EndSpan(span, err)
	return result, err
}

func (e *Executor) execute(ctx context.Context, request string, plan *Plan, catalog []agent.ToolDescriptor, logger zerolog.Logger) (*ExecutionResult, error) {
	if e.provider == nil {
		return nil, &PhaseError{Phase: PhaseExecution, Err: fmt.Errorf("no model provider configured")}
	}
	if e.dispatcher == nil {
		return nil, &PhaseError{Phase: PhaseExecution, Err: fmt.Errorf("no tool dispatcher configured")}
	}

	document := ""
	if plan != nil {
		document = plan.Document
	}
	seed, err := agent.TextMessage(agent.RoleUser, ExecutionPrompt(request, document))
	if err != nil {
		return nil, &PhaseError{Phase: PhaseExecution, Err: err}
	}

	start := time.Now()
	history := []agent.Message{seed}
	result := &ExecutionResult{State: StateRunning, Usage: &agent.TokenUsage{}}
	var last *agent.LLMResponse

	for result.State == StateRunning {
		result.Iterations++

		resp, err := callModel(ctx, e.provider, PhaseExecution, agent.LLMRequest{
			Model:       e.cfg.Model,
			Messages:    history,
			Tools:       catalog,
			MaxTokens:   e.cfg.MaxTokens,
			Temperature: e.cfg.Temperature,
		})
		if err != nil {
			logger.Error().Err(err).Int("iteration", result.Iterations).Msg("Execution call failed")
			return nil, &PhaseError{Phase: PhaseExecution, Err: err}
		}
		last = resp
		result.Usage.Add(resp.Usage)

		assistant, err := agent.NewMessage(agent.RoleAssistant, resp.Content...)
		if err != nil {
			return nil, &PhaseError{Phase: PhaseExecution, Err: err}
		}
		history = append(history, assistant)

		uses := resp.ToolUses()
		logger.Debug().
			Int("iteration", result.Iterations).
			Int("tool_uses", len(uses)).
			Str("stop_reason", resp.StopReason).
			Msg("Model turn")

		if len(uses) == 0 {
			result.State = StateDone
			break
		}

		results := make([]agent.ToolResult, 0, len(uses))
		for _, use := range uses {
			if e.cfg.OnToolUse != nil {
				e.cfg.OnToolUse(use)
			}
			res := e.dispatcher.Dispatch(ctx, use)
			res.ToolUseID = use.ID
			result.ToolCalls++
			if res.IsError {
				result.ToolErrors++
			}
			results = append(results, res)
		}

		toolMsg, err := agent.NewMessage(agent.RoleUser, agent.ToolResultBlocks(results)...)
		if err != nil {
			return nil, &PhaseError{Phase: PhaseExecution, Err: err}
		}
		history = append(history, toolMsg)

		if result.Iterations >= e.cfg.MaxIterations {
			result.State = StateDone
			result.Truncated = true
			logger.Warn().
				Int("iterations", result.Iterations).
				Msg("Iteration bound reached with tool calls pending, using last response")
		}
	}

	result.Answer = last.Text()
	if result.Answer == "" {
		result.Answer = NoTextResponse
	}
	result.History = history
	result.Duration = time.Since(start)

	observability.RecordExecution(result.Iterations, result.Truncated)
	logger.Info().
		Int("iterations", result.Iterations).
		Int("tool_calls", result.ToolCalls).
		Int("tool_errors", result.ToolErrors).
		Bool("truncated", result.Truncated).
		Dur("duration", result.Duration).
		Msg("Execution finished")

	return result, nil
}
