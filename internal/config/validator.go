package config

import (
	"fmt"
	"regexp"
	"strings"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

var (
	validProviders = []string{"anthropic", "openai"}
	validPolicies  = []string{"best_effort", "fatal"}
	validLevels    = []string{"debug", "info", "warn", "error"}
)

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// ValidateProvider validates a model provider name
func (v *Validator) ValidateProvider(provider string) error {
	if !oneOf(provider, validProviders) {
		return fmt.Errorf("invalid model provider: %q (must be one of: %s)", provider, strings.Join(validProviders, ", "))
	}
	return nil
}

// ValidateAPIKey validates an API key format. An empty key is allowed; the
// provider SDK then reads its own environment variable.
func (v *Validator) ValidateAPIKey(key string, provider string) error {
	if key == "" {
		return nil
	}

	switch provider {
	case "anthropic":
		if !strings.HasPrefix(key, "sk-ant-") {
			return fmt.Errorf("invalid Anthropic API key format (should start with sk-ant-)")
		}
	case "openai":
		if !strings.HasPrefix(key, "sk-") {
			return fmt.Errorf("invalid OpenAI API key format (should start with sk-)")
		}
	}

	return nil
}

// ValidateTemperature validates temperature value
func (v *Validator) ValidateTemperature(temp float64) error {
	if temp < 0 || temp > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %g", temp)
	}
	return nil
}

// ValidateMaxTokens validates max tokens value
func (v *Validator) ValidateMaxTokens(tokens int) error {
	if tokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", tokens)
	}
	if tokens > 200000 {
		return fmt.Errorf("max tokens too large (max 200000), got %d", tokens)
	}
	return nil
}

// ValidatePolicy validates a best_effort/fatal failure policy
func (v *Validator) ValidatePolicy(policy string) error {
	if policy == "" {
		return nil // Use default
	}
	if !oneOf(policy, validPolicies) {
		return fmt.Errorf("invalid failure policy: %q (must be one of: %s)", policy, strings.Join(validPolicies, ", "))
	}
	return nil
}

// ValidateResourceURI checks that uri has a scheme.
func (v *Validator) ValidateResourceURI(uri string) error {
	if !strings.Contains(uri, "://") {
		return fmt.Errorf("invalid resource URI: %q", uri)
	}
	return nil
}

// ValidatePattern checks that pattern compiles as a regular expression.
func (v *Validator) ValidatePattern(pattern string) error {
	if _, err := regexp.Compile(pattern); err != nil {
		return fmt.Errorf("invalid schema pattern: %w", err)
	}
	return nil
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	if !oneOf(level, validLevels) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
	}
	return nil
}

// ValidateConfig performs comprehensive validation
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errs []error
	add := func(section string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", section, err))
		}
	}

	add("model", v.ValidateProvider(cfg.Model.Provider))
	add("model", v.ValidateAPIKey(cfg.Model.APIKey, cfg.Model.Provider))
	add("model", v.ValidateTemperature(cfg.Model.Temperature))
	if strings.TrimSpace(cfg.Model.ID) == "" {
		add("model", fmt.Errorf("model id cannot be empty"))
	}

	add("planning", v.ValidateMaxTokens(cfg.Planning.MaxTokens))
	add("execution", v.ValidateMaxTokens(cfg.Execution.MaxTokens))
	if cfg.Execution.MaxIterations <= 0 {
		add("execution", fmt.Errorf("max_iterations must be positive, got %d", cfg.Execution.MaxIterations))
	}

	for _, uri := range cfg.Schema.URIs {
		add("schema", v.ValidateResourceURI(uri))
	}
	if cfg.Schema.Discover {
		add("schema", v.ValidatePattern(cfg.Schema.Pattern))
	}
	add("schema", v.ValidatePolicy(cfg.Schema.Policy))
	add("catalog", v.ValidatePolicy(cfg.Catalog.Policy))

	if cfg.Tools.TimeoutSeconds < 0 {
		add("tools", fmt.Errorf("timeout_seconds must be >= 0"))
	}
	if cfg.Tools.MaxOutputBytes < 0 {
		add("tools", fmt.Errorf("max_output_bytes must be >= 0"))
	}

	if cfg.Artifacts.Enabled && strings.TrimSpace(cfg.Artifacts.Dir) == "" {
		add("artifacts", fmt.Errorf("dir is required when artifacts are enabled"))
	}

	add("logging", v.ValidateLogLevel(cfg.Logging.Level))
	if cfg.Logging.MaxSize < 0 {
		add("logging", fmt.Errorf("max_size must be >= 0"))
	}

	return errs
}
