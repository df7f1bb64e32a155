package cli

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/harun/mcpilot/internal/config"
	"github.com/harun/mcpilot/pkg/agent"
	"github.com/harun/mcpilot/pkg/artifacts"
	"github.com/harun/mcpilot/pkg/orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrchestratorConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Model.ID = "claude-test"
	cfg.Model.Temperature = 0.2
	cfg.Execution.MaxIterations = 5
	cfg.Tools.TimeoutSeconds = 15
	cfg.Tools.Deny = []string{"drop"}
	cfg.Schema.Discover = true
	cfg.Catalog.Policy = "best_effort"

	called := false
	ocfg, err := orchestratorConfig(cfg, func(agent.ToolUse) { called = true })
	require.NoError(t, err)

	assert.Equal(t, "claude-test", ocfg.Model)
	assert.Equal(t, 1500, ocfg.Planning.MaxTokens)
	assert.Equal(t, 0.2, ocfg.Planning.Temperature)
	assert.Equal(t, 5, ocfg.Execution.MaxIterations)
	assert.Equal(t, 15*time.Second, ocfg.Tools.Timeout)
	require.NotNil(t, ocfg.Tools.Policy)
	assert.False(t, ocfg.Tools.Policy.IsToolAllowed("drop"))
	assert.True(t, ocfg.Schema.Discover)
	assert.Equal(t, orchestrator.PolicyBestEffort, ocfg.Schema.Policy)
	assert.Equal(t, orchestrator.PolicyBestEffort, ocfg.CatalogPolicy)

	require.NotNil(t, ocfg.Execution.OnToolUse)
	ocfg.Execution.OnToolUse(agent.ToolUse{Name: "x"})
	assert.True(t, called)
}

func TestOrchestratorConfig_NoPolicyWhenUnrestricted(t *testing.T) {
	ocfg, err := orchestratorConfig(config.DefaultConfig(), nil)
	require.NoError(t, err)
	assert.Nil(t, ocfg.Tools.Policy)
	assert.Equal(t, orchestrator.PolicyFatal, ocfg.CatalogPolicy)
}

func TestOrchestratorConfig_BadPolicy(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Schema.Policy = "sometimes"
	_, err := orchestratorConfig(cfg, nil)
	assert.Error(t, err)
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	prevCfg, prevLevel, prevMetrics := cfgFile, logLevel, metricsAddr
	t.Cleanup(func() { cfgFile, logLevel, metricsAddr = prevCfg, prevLevel, prevMetrics })

	cfgFile = filepath.Join(home, "missing.json")
	logLevel = "debug"
	metricsAddr = "127.0.0.1:0"

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "127.0.0.1:0", cfg.Metrics.Addr)

	logLevel = "shout"
	_, err = loadConfig()
	assert.Error(t, err)
}

func TestApp_RecorderAndHistory(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Logging.Console = false
	cfg.Logging.File = filepath.Join(dir, "mcpilot.log")
	cfg.Artifacts.Dir = filepath.Join(dir, "data")
	cfg.Artifacts.HistoryDB = filepath.Join(dir, "history.db")

	a, err := newApp(cfg)
	require.NoError(t, err)
	defer a.Close()

	sinks, ok := a.recorder().(artifacts.Multi)
	require.True(t, ok)
	assert.Len(t, sinks, 2)
	assert.NotNil(t, a.files)
	assert.NotNil(t, a.history)

	_, err = a.newOrchestrator(nil)
	assert.Error(t, err, "not connected")
}

func TestApp_ArtifactsDisabled(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Logging.Console = false
	cfg.Logging.File = filepath.Join(dir, "mcpilot.log")
	cfg.Artifacts.Enabled = false

	a, err := newApp(cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.files)
	_, err = a.openHistory()
	assert.Error(t, err)
}
