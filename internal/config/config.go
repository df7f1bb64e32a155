// Package config loads mcpilot settings from a JSON file, environment
// variables (MCPILOT_*) and built-in defaults, in that order of precedence
// from lowest to highest: defaults, file, environment.
package config

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"time"

	"github.com/harun/mcpilot/internal/logger"
)

// Config represents the main mcpilot configuration
type Config struct {
	Model     ModelConfig     `json:"model" mapstructure:"model"`
	Planning  PlanningConfig  `json:"planning" mapstructure:"planning"`
	Execution ExecutionConfig `json:"execution" mapstructure:"execution"`
	Schema    SchemaConfig    `json:"schema" mapstructure:"schema"`
	Catalog   CatalogConfig   `json:"catalog" mapstructure:"catalog"`
	Tools     ToolsConfig     `json:"tools" mapstructure:"tools"`
	Artifacts ArtifactsConfig `json:"artifacts" mapstructure:"artifacts"`
	Logging   LoggingConfig   `json:"logging" mapstructure:"logging"`
	Metrics   MetricsConfig   `json:"metrics" mapstructure:"metrics"`
	Tracing   TracingConfig   `json:"tracing" mapstructure:"tracing"`

	// Data directory for logs and run history
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// ModelConfig selects the model provider. An empty APIKey leaves the SDK to
// read ANTHROPIC_API_KEY or OPENAI_API_KEY.
type ModelConfig struct {
	Provider    string  `json:"provider" mapstructure:"provider"` // anthropic, openai
	ID          string  `json:"id" mapstructure:"id"`
	APIKey      string  `json:"api_key" mapstructure:"api_key"`
	BaseURL     string  `json:"base_url" mapstructure:"base_url"`
	Temperature float64 `json:"temperature" mapstructure:"temperature"`
}

// PlanningConfig holds planning call settings
type PlanningConfig struct {
	MaxTokens int `json:"max_tokens" mapstructure:"max_tokens"`
}

// ExecutionConfig holds execution loop settings
type ExecutionConfig struct {
	MaxTokens     int `json:"max_tokens" mapstructure:"max_tokens"`
	MaxIterations int `json:"max_iterations" mapstructure:"max_iterations"`
}

// SchemaConfig selects the resources read as schema context.
type SchemaConfig struct {
	URIs     []string `json:"uris" mapstructure:"uris"`
	Discover bool     `json:"discover" mapstructure:"discover"`
	Pattern  string   `json:"pattern" mapstructure:"pattern"`
	Policy   string   `json:"policy" mapstructure:"policy"` // best_effort, fatal
}

// CatalogConfig decides what happens when the tool list cannot be fetched.
type CatalogConfig struct {
	Policy string `json:"policy" mapstructure:"policy"` // best_effort, fatal
}

// ToolsConfig holds tool dispatch settings
type ToolsConfig struct {
	ValidateArguments bool     `json:"validate_arguments" mapstructure:"validate_arguments"`
	TimeoutSeconds    int      `json:"timeout_seconds" mapstructure:"timeout_seconds"` // 0 disables
	MaxOutputBytes    int      `json:"max_output_bytes" mapstructure:"max_output_bytes"`
	Allow             []string `json:"allow" mapstructure:"allow"`
	Deny              []string `json:"deny" mapstructure:"deny"`
}

// Timeout returns the per-call tool timeout.
func (t ToolsConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutSeconds) * time.Second
}

// ArtifactsConfig controls what each run leaves behind.
type ArtifactsConfig struct {
	Enabled   bool   `json:"enabled" mapstructure:"enabled"`
	Dir       string `json:"dir" mapstructure:"dir"`               // plan/answer files and transcripts
	HistoryDB string `json:"history_db" mapstructure:"history_db"` // sqlite run history; empty disables
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Console   bool   `json:"console" mapstructure:"console"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size"` // MB
	MaxAge    int    `json:"max_age" mapstructure:"max_age"`   // days
	Compress  bool   `json:"compress" mapstructure:"compress"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
	AuditFile string `json:"audit_file" mapstructure:"audit_file"` // JSONL audit trail; empty disables
}

// LoggerConfig converts to the logger package's configuration.
func (l LoggingConfig) LoggerConfig() logger.Config {
	return logger.Config{
		Level:     l.Level,
		File:      l.File,
		Console:   l.Console,
		Pretty:    l.Pretty,
		Redaction: l.Redaction,
		MaxSize:   l.MaxSize,
		MaxAge:    l.MaxAge,
		Compress:  l.Compress,
	}
}

// MetricsConfig holds the Prometheus endpoint settings
type MetricsConfig struct {
	Addr string `json:"addr" mapstructure:"addr"` // e.g. 127.0.0.1:9464; empty disables
}

// TracingConfig toggles the in-process OpenTelemetry tracer provider.
type TracingConfig struct {
	Enabled     bool   `json:"enabled" mapstructure:"enabled"`
	ServiceName string `json:"service_name" mapstructure:"service_name"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	lc := logger.DefaultConfig()
	return &Config{
		Model: ModelConfig{
			Provider: "anthropic",
			ID:       "claude-3-5-sonnet-20241022",
		},
		Planning: PlanningConfig{
			MaxTokens: 1500,
		},
		Execution: ExecutionConfig{
			MaxTokens:     2000,
			MaxIterations: 10,
		},
		Schema: SchemaConfig{
			URIs:    []string{"postgres://schema"},
			Pattern: `^postgres://[^/]+/schema$`,
			Policy:  "best_effort",
		},
		Catalog: CatalogConfig{
			Policy: "fatal",
		},
		Tools: ToolsConfig{
			Allow: []string{},
			Deny:  []string{},
		},
		Artifacts: ArtifactsConfig{
			Enabled: true,
			Dir:     "data",
		},
		Logging: LoggingConfig{
			Level:     lc.Level,
			Console:   lc.Console,
			Pretty:    lc.Pretty,
			MaxSize:   lc.MaxSize,
			MaxAge:    lc.MaxAge,
			Compress:  lc.Compress,
			Redaction: lc.Redaction,
		},
		Tracing: TracingConfig{
			ServiceName: "mcpilot",
		},
	}
}

// applyPathDefaults fills paths derived from DataDir.
func (c *Config) applyPathDefaults(home string) {
	if c.DataDir == "" {
		c.DataDir = filepath.Join(home, ".mcpilot")
	}
	if c.Logging.File == "" {
		c.Logging.File = filepath.Join(c.DataDir, "mcpilot.log")
	}
	if c.Artifacts.HistoryDB == "" {
		c.Artifacts.HistoryDB = filepath.Join(c.DataDir, "history.db")
	}
}

// String returns a JSON representation of the config with the API key masked.
func (c *Config) String() string {
	masked := *c
	if masked.Model.APIKey != "" {
		masked.Model.APIKey = "***"
	}
	data, _ := json.MarshalIndent(masked, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	return errors.Join(NewValidator().ValidateConfig(c)...)
}
