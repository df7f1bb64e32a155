package orchestrator

import (
	"fmt"
	"strings"

	"github.com/harun/mcpilot/pkg/planner"
	"github.com/harun/mcpilot/pkg/toolexecutor"
)

// FailurePolicy decides whether a failed pre-flight step aborts the run.
type FailurePolicy string

const (
	PolicyBestEffort FailurePolicy = "best_effort" // log and continue with an empty value
	PolicyFatal      FailurePolicy = "fatal"       // abort the run
)

// ParsePolicy accepts "best_effort", "best-effort" or "fatal". Empty returns def.
func ParsePolicy(s string, def FailurePolicy) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return def, nil
	case "best_effort", "best-effort":
		return PolicyBestEffort, nil
	case "fatal":
		return PolicyFatal, nil
	default:
		return "", fmt.Errorf("unknown failure policy %q", s)
	}
}

const (
	DefaultSchemaURI     = "postgres://schema"
	DefaultSchemaPattern = `^postgres://[^/]+/schema$`
)

// SchemaConfig selects the resources read as schema context.
type SchemaConfig struct {
	URIs     []string
	Discover bool   // also read listed resources whose URI matches Pattern
	Pattern  string // regular expression
	Policy   FailurePolicy
}

// Config configures an Orchestrator.
type Config struct {
	// Model is used by both stages unless Planning.Model or Execution.Model is set.
	Model string

	Planning  planner.Config
	Execution planner.ExecutorConfig
	Tools     toolexecutor.Config
	Schema    SchemaConfig

	CatalogPolicy FailurePolicy
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Planning:  planner.Config{MaxTokens: planner.DefaultPlanningMaxTokens},
		Execution: planner.ExecutorConfig{MaxTokens: planner.DefaultExecutionMaxTokens, MaxIterations: planner.DefaultMaxIterations},
		Schema: SchemaConfig{
			URIs:    []string{DefaultSchemaURI},
			Pattern: DefaultSchemaPattern,
			Policy:  PolicyBestEffort,
		},
		CatalogPolicy: PolicyFatal,
	}
}

func (c Config) withDefaults() Config {
	if c.Planning.Model == "" {
		c.Planning.Model = c.Model
	}
	if c.Execution.Model == "" {
		c.Execution.Model = c.Model
	}
	if c.Schema.URIs == nil {
		c.Schema.URIs = []string{DefaultSchemaURI}
	}
	if c.Schema.Pattern == "" {
		c.Schema.Pattern = DefaultSchemaPattern
	}
	if c.Schema.Policy == "" {
		c.Schema.Policy = PolicyBestEffort
	}
	if c.CatalogPolicy == "" {
		c.CatalogPolicy = PolicyFatal
	}
	return c
}
