package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harun/mcpilot/internal/observability"
	"github.com/harun/mcpilot/internal/tracing"
	"github.com/harun/mcpilot/pkg/agent"
	"github.com/harun/mcpilot/pkg/artifacts"
	"github.com/harun/mcpilot/pkg/mcp"
	"github.com/harun/mcpilot/pkg/planner"
	"github.com/harun/mcpilot/pkg/toolexecutor"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// ErrorPrefix starts every answer Process returns for a failed run.
const ErrorPrefix = "Error in process_prompt: "

var (
	ErrCatalogUnavailable = errors.New("tool catalog unavailable")
	ErrSchemaUnavailable  = errors.New("schema context unavailable")
)

// Session is the connected MCP server as seen by one run.
type Session interface {
	ListTools(ctx context.Context) ([]agent.ToolDescriptor, error)
	CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallResult, error)
	ReadResource(ctx context.Context, uri string) (string, error)
	ListResources(ctx context.Context) ([]mcp.Resource, error)
}

// Orchestrator wires the stages of one request together. It keeps no
// per-request state, so Process may be called concurrently if the session
// allows it.
type Orchestrator struct {
	cfg      Config
	session  Session
	provider agent.LLMProvider
	planner  *planner.Planner
	schema   *SchemaSource
	reviewer *planner.Reviewer
	recorder artifacts.Recorder
	logger   zerolog.Logger
}

// Option is a functional option for configuring the Orchestrator
type Option func(*Orchestrator)

// WithRecorder stores every finished run.
func WithRecorder(recorder artifacts.Recorder) Option {
	return func(o *Orchestrator) {
		o.recorder = recorder
	}
}

// WithReviewer gates execution on a plan review.
func WithReviewer(reviewer *planner.Reviewer) Option {
	return func(o *Orchestrator) {
		o.reviewer = reviewer
	}
}

// New creates an orchestrator. The schema pattern is compiled here so a bad
// pattern fails at startup rather than per request.
func New(cfg Config, session Session, provider agent.LLMProvider, logger zerolog.Logger, opts ...Option) (*Orchestrator, error) {
	cfg = cfg.withDefaults()
	logger = logger.With().Str("component", "orchestrator").Logger()

	schema, err := NewSchemaSource(session, cfg.Schema, logger)
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		cfg:      cfg,
		session:  session,
		provider: provider,
		planner:  planner.New(provider, cfg.Planning, logger),
		schema:   schema,
		recorder: artifacts.Nop{},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Process answers request. The returned text is either the final answer or
// ErrorPrefix followed by the failure.
func (o *Orchestrator) Process(ctx context.Context, request string) (answer string) {
	run := &artifacts.Run{
		ID:        tracing.NewRunID(),
		Request:   request,
		StartedAt: time.Now(),
	}
	ctx = tracing.EnsureIDs(tracing.WithRunID(ctx, run.ID))
	run.TraceID = tracing.GetTraceID(ctx)

	ctx, span := tracing.StartSpan(ctx, "mcpilot/orchestrator", "orchestrator.process",
		attribute.String("run_id", run.ID),
		attribute.Int("request.bytes", len(request)),
	)
	logger := tracing.LoggerFromContext(ctx, o.logger)
	logger.Info().Msg("Processing request")

	var err error
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("Recovered from panic while processing request")
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			run.Error = err.Error()
			answer = ErrorPrefix + err.Error()
		}
		run.Answer = answer
		run.FinishedAt = time.Now()
		o.finish(ctx, run, logger)
		tracing.EndSpan(span, err)
	}()

	answer, err = o.process(ctx, run, logger)
	return answer
}

func (o *Orchestrator) process(ctx context.Context, run *artifacts.Run, logger zerolog.Logger) (string, error) {
	if o.session == nil {
		return "", errors.New("no session connected")
	}

	schemaText, err := o.schemaContext(ctx, logger)
	if err != nil {
		return "", err
	}

	catalog, err := o.catalog(ctx, logger)
	if err != nil {
		return "", err
	}

	plan, err := o.planner.Plan(ctx, run.Request, schemaText)
	if err != nil {
		return "", err
	}
	run.Plan = plan

	plan, err = o.reviewer.Review(ctx, plan)
	if err != nil {
		return "", err
	}
	run.Plan = plan

	dispatcher := toolexecutor.New(o.session, o.cfg.Tools, o.logger)
	if skipped := dispatcher.RegisterCatalog(catalog); len(skipped) > 0 {
		logger.Warn().Strs("tools", skipped).Msg("Tool schemas could not be compiled; arguments will not be validated")
	}

	executor := planner.NewExecutor(o.provider, dispatcher, o.cfg.Execution, o.logger)
	result, err := executor.Execute(ctx, run.Request, plan, catalog)
	if err != nil {
		return "", err
	}
	run.Execution = result

	if result.Truncated {
		logger.Warn().Int("iterations", result.Iterations).Msg("Iteration limit reached before a final answer")
	}
	return result.Answer, nil
}

func (o *Orchestrator) schemaContext(ctx context.Context, logger zerolog.Logger) (string, error) {
	text, err := o.schema.Fetch(ctx)
	if err == nil {
		return text, nil
	}
	if o.cfg.Schema.Policy == PolicyFatal {
		return "", err
	}
	logger.Warn().Err(err).Msg("Continuing without full schema context")
	return text, nil
}

func (o *Orchestrator) catalog(ctx context.Context, logger zerolog.Logger) ([]agent.ToolDescriptor, error) {
	tools, err := o.session.ListTools(ctx)
	if err == nil {
		logger.Debug().Int("tools", len(tools)).Msg("Tool catalog loaded")
		return tools, nil
	}
	if o.cfg.CatalogPolicy == PolicyBestEffort {
		logger.Warn().Err(err).Msg("Continuing with an empty tool catalog")
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
}

func (o *Orchestrator) finish(ctx context.Context, run *artifacts.Run, logger zerolog.Logger) {
	duration := run.FinishedAt.Sub(run.StartedAt)
	observability.RecordRun(duration, run.Succeeded())

	status := "success"
	if !run.Succeeded() {
		status = "error"
	}
	meta := map[string]interface{}{
		"run_id":        run.ID,
		"request_bytes": len(run.Request),
		"duration_ms":   duration.Milliseconds(),
	}
	if run.Execution != nil {
		meta["iterations"] = run.Execution.Iterations
		meta["tool_calls"] = run.Execution.ToolCalls
		meta["truncated"] = run.Execution.Truncated
	}
	if run.Error != "" {
		meta["error"] = run.Error
	}
	observability.RecordRunAudit(ctx, "orchestrator", status, meta)

	if o.recorder != nil {
		if err := o.recorder.Record(context.WithoutCancel(ctx), run); err != nil {
			logger.Warn().Err(err).Msg("Failed to record run artifacts")
		}
	}

	event := logger.Info()
	if !run.Succeeded() {
		event = logger.Error().Str("error", run.Error)
	}
	event.Dur("duration", duration).Msg("Request finished")
}
