package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harun/mcpilot/internal/tracing"
	"github.com/harun/mcpilot/pkg/agent"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultPlanningMaxTokens is the output budget of the planning call.
const DefaultPlanningMaxTokens = 1500

// Config configures the planning stage.
type Config struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// Planner turns a request plus schema context into a plan document with a
// single tool-less model call.
type Planner struct {
	provider agent.LLMProvider
	cfg      Config
	logger   zerolog.Logger
}

// New creates a planner. Zero config fields fall back to defaults.
func New(provider agent.LLMProvider, cfg Config, logger zerolog.Logger) *Planner {
	if cfg.Model == "" {
		cfg.Model = agent.DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultPlanningMaxTokens
	}
	return &Planner{
		provider: provider,
		cfg:      cfg,
		logger:   logger.With().Str("component", "planner").Logger(),
	}
}

// Plan asks the model for a four-section plan. The response text is returned
// verbatim; missing sections are logged, never rejected.
func (p *Planner) Plan(ctx context.Context, request, schemaContext string) (*Plan, error) {
	ctx = tracing.WithPhase(ctx, PhasePlanning)
	ctx, span := tracing.StartSpan(ctx, "mcpilot/planner", "planner.plan",
		attribute.Int("schema.bytes", len(schemaContext)),
	)
	logger := tracing.LoggerFromContext(ctx, p.logger)

	plan, err := p.plan(ctx, request, schemaContext, logger)
	tracing.EndSpan(span, err)
	return plan, err
}

func (p *Planner) plan(ctx context.Context, request, schemaContext string, logger zerolog.Logger) (*Plan, error) {
	if p.provider == nil {
		return nil, &PhaseError{Phase: PhasePlanning, Err: fmt.Errorf("no model provider configured")}
	}

	msg, err := agent.TextMessage(agent.RoleUser, PlanningPrompt(request, schemaContext))
	if err != nil {
		return nil, &PhaseError{Phase: PhasePlanning, Err: err}
	}

	start := time.Now()
	resp, err := callModel(ctx, p.provider, PhasePlanning, agent.LLMRequest{
		Model:       p.cfg.Model,
		Messages:    []agent.Message{msg},
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.Temperature,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Planning call failed")
		return nil, &PhaseError{Phase: PhasePlanning, Err: err}
	}

	doc := resp.Text()
	if missing := MissingSections(doc); len(missing) > 0 {
		logger.Warn().Strs("missing", missing).Msg("Plan is missing sections")
	}

	logger.Info().
		Int("plan_bytes", len(doc)).
		Dur("duration", time.Since(start)).
		Msg("Plan generated")

	return &Plan{
		ID:        uuid.New().String(),
		Request:   request,
		Document:  doc,
		CreatedAt: time.Now(),
		Usage:     resp.Usage,
	}, nil
}
