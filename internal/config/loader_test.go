package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderLoad(t *testing.T) {
	t.Run("defaults when file is missing", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)

		cfg, err := NewLoader(filepath.Join(home, "missing.json")).Load()
		require.NoError(t, err)

		assert.Equal(t, "anthropic", cfg.Model.Provider)
		assert.Equal(t, 1500, cfg.Planning.MaxTokens)
		assert.Equal(t, 2000, cfg.Execution.MaxTokens)
		assert.Equal(t, 10, cfg.Execution.MaxIterations)
		assert.Equal(t, []string{"postgres://schema"}, cfg.Schema.URIs)
		assert.Equal(t, "best_effort", cfg.Schema.Policy)
		assert.Equal(t, "fatal", cfg.Catalog.Policy)
		assert.Equal(t, filepath.Join(home, ".mcpilot"), cfg.DataDir)
		assert.Equal(t, filepath.Join(home, ".mcpilot", "mcpilot.log"), cfg.Logging.File)
		assert.Equal(t, filepath.Join(home, ".mcpilot", "history.db"), cfg.Artifacts.HistoryDB)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		configPath := filepath.Join(home, "mcpilot.json")

		content := `{
			"model": {"provider": "openai", "id": "gpt-4o"},
			"execution": {"max_iterations": 4},
			"schema": {"discover": true, "policy": "fatal"},
			"tools": {"timeout_seconds": 30, "deny": ["drop_table"]},
			"data_dir": "` + filepath.ToSlash(filepath.Join(home, "state")) + `"
		}`
		require.NoError(t, os.WriteFile(configPath, []byte(content), 0600))

		cfg, err := NewLoader(configPath).Load()
		require.NoError(t, err)

		assert.Equal(t, "openai", cfg.Model.Provider)
		assert.Equal(t, "gpt-4o", cfg.Model.ID)
		assert.Equal(t, 4, cfg.Execution.MaxIterations)
		assert.Equal(t, 2000, cfg.Execution.MaxTokens, "unset keys keep defaults")
		assert.True(t, cfg.Schema.Discover)
		assert.Equal(t, "fatal", cfg.Schema.Policy)
		assert.Equal(t, []string{"postgres://schema"}, cfg.Schema.URIs)
		assert.Equal(t, 30*time.Second, cfg.Tools.Timeout())
		assert.Equal(t, []string{"drop_table"}, cfg.Tools.Deny)
		assert.Equal(t, filepath.Join(home, "state", "history.db"), cfg.Artifacts.HistoryDB)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		configPath := filepath.Join(home, "mcpilot.json")
		require.NoError(t, os.WriteFile(configPath, []byte(`{"model": {"id": "from-file"}}`), 0600))

		t.Setenv("MCPILOT_MODEL_ID", "from-env")
		t.Setenv("MCPILOT_EXECUTION_MAX_ITERATIONS", "3")
		t.Setenv("MCPILOT_CATALOG_POLICY", "best_effort")

		cfg, err := NewLoader(configPath).Load()
		require.NoError(t, err)

		assert.Equal(t, "from-env", cfg.Model.ID)
		assert.Equal(t, 3, cfg.Execution.MaxIterations)
		assert.Equal(t, "best_effort", cfg.Catalog.Policy)
	})

	t.Run("invalid json", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		configPath := filepath.Join(home, "mcpilot.json")
		require.NoError(t, os.WriteFile(configPath, []byte(`{not json`), 0600))

		_, err := NewLoader(configPath).Load()
		assert.Error(t, err)
	})
}

func TestLoaderSave(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	configPath := filepath.Join(home, "nested", "mcpilot.json")

	cfg := DefaultConfig()
	cfg.Model.ID = "claude-test"
	cfg.Execution.MaxIterations = 7
	cfg.Schema.URIs = []string{"postgres://players/schema"}

	loader := NewLoader(configPath)
	require.NoError(t, loader.Save(cfg))

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "claude-test", loaded.Model.ID)
	assert.Equal(t, 7, loaded.Execution.MaxIterations)
	assert.Equal(t, []string{"postgres://players/schema"}, loaded.Schema.URIs)
}

func TestGetConfigPath(t *testing.T) {
	assert.Equal(t, "/etc/mcpilot.json", NewLoader("/etc/mcpilot.json").GetConfigPath())

	home := t.TempDir()
	t.Setenv("HOME", home)
	assert.Equal(t, filepath.Join(home, ".mcpilot", "mcpilot.json"), NewLoader("").GetConfigPath())
}
