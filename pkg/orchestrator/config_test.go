package orchestrator

import (
	"testing"

	"github.com/harun/mcpilot/pkg/planner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    FailurePolicy
		wantErr bool
	}{
		{"", PolicyFatal, false},
		{"best_effort", PolicyBestEffort, false},
		{"Best-Effort", PolicyBestEffort, false},
		{" fatal ", PolicyFatal, false},
		{"ignore", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in, PolicyFatal)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{Model: "m", Execution: planner.ExecutorConfig{Model: "exec-model"}}.withDefaults()

	assert.Equal(t, "m", cfg.Planning.Model)
	assert.Equal(t, "exec-model", cfg.Execution.Model)
	assert.Equal(t, []string{DefaultSchemaURI}, cfg.Schema.URIs)
	assert.Equal(t, DefaultSchemaPattern, cfg.Schema.Pattern)
	assert.Equal(t, PolicyBestEffort, cfg.Schema.Policy)
	assert.Equal(t, PolicyFatal, cfg.CatalogPolicy)

	def := DefaultConfig()
	assert.Equal(t, planner.DefaultMaxIterations, def.Execution.MaxIterations)
	assert.Equal(t, planner.DefaultPlanningMaxTokens, def.Planning.MaxTokens)
}
