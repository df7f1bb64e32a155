package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/harun/mcpilot/internal/config"
	"github.com/harun/mcpilot/internal/logger"
	"github.com/harun/mcpilot/internal/observability"
	"github.com/harun/mcpilot/internal/tracing"
	"github.com/harun/mcpilot/pkg/agent"
	"github.com/harun/mcpilot/pkg/artifacts"
	"github.com/harun/mcpilot/pkg/mcp"
	"github.com/harun/mcpilot/pkg/orchestrator"
	"github.com/harun/mcpilot/pkg/planner"
	"github.com/harun/mcpilot/pkg/toolexecutor"
	"github.com/rs/zerolog"
)

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if metricsAddr != "" {
		cfg.Metrics.Addr = metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// app holds everything a command needs for the lifetime of one session.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	logger  zerolog.Logger
	client  *mcp.Client
	history *artifacts.SQLiteStore
	files   *artifacts.FileRecorder
	metrics *http.Server
	closers []func() error
}

// newApp sets up logging, metrics and tracing. It does not connect.
func newApp(cfg *config.Config) (*app, error) {
	log, err := logger.New(cfg.Logging.LoggerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	a := &app{cfg: cfg, log: log, logger: log.Zerolog()}
	a.closers = append(a.closers, log.Close)

	if cfg.Logging.AuditFile != "" {
		if err := observability.InitAuditLogger(cfg.Logging.AuditFile); err != nil {
			a.logger.Warn().Err(err).Str("path", cfg.Logging.AuditFile).Msg("Audit log disabled")
		} else {
			a.closers = append(a.closers, observability.GetAuditLogger().Close)
		}
	}

	if cfg.Tracing.Enabled {
		if err := tracing.InitOpenTelemetry(cfg.Tracing.ServiceName); err != nil {
			a.logger.Warn().Err(err).Msg("Tracing disabled")
		} else {
			a.closers = append(a.closers, func() error {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return tracing.ShutdownOpenTelemetry(ctx)
			})
		}
	}

	if cfg.Metrics.Addr != "" {
		a.startMetrics(cfg.Metrics.Addr)
	}
	return a, nil
}

func (a *app) startMetrics(addr string) {
	observability.EnsureRegistered()
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.MetricsHandler())
	a.metrics = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error().Err(err).Str("addr", addr).Msg("Metrics server stopped")
		}
	}()
	a.logger.Info().Str("addr", addr).Msg("Serving metrics")

	a.closers = append(a.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return a.metrics.Shutdown(ctx)
	})
}

// connect opens the MCP session described by serverSpec.
func (a *app) connect(ctx context.Context, serverSpec string) error {
	client := mcp.NewClient(a.logger)
	if err := client.Connect(ctx, serverSpec); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", serverSpec, err)
	}
	a.client = client
	a.closers = append(a.closers, client.Close)
	return nil
}

// openHistory opens the sqlite run history if configured.
func (a *app) openHistory() (*artifacts.SQLiteStore, error) {
	if a.history != nil {
		return a.history, nil
	}
	if a.cfg.Artifacts.HistoryDB == "" {
		return nil, errors.New("run history is disabled (artifacts.history_db is empty)")
	}
	store, err := artifacts.OpenSQLiteStore(a.cfg.Artifacts.HistoryDB, a.logger)
	if err != nil {
		return nil, err
	}
	a.history = store
	a.closers = append(a.closers, store.Close)
	return store, nil
}

// recorder builds the artifact sinks. Failures degrade to fewer sinks.
func (a *app) recorder() artifacts.Recorder {
	if !a.cfg.Artifacts.Enabled {
		return artifacts.Nop{}
	}

	var sinks artifacts.Multi
	files, err := artifacts.NewFileRecorder(a.cfg.Artifacts.Dir, a.logger)
	if err != nil {
		a.logger.Warn().Err(err).Msg("Run files disabled")
	} else {
		a.files = files
		sinks = append(sinks, files)
	}

	if a.cfg.Artifacts.HistoryDB != "" {
		store, err := a.openHistory()
		if err != nil {
			a.logger.Warn().Err(err).Msg("Run history disabled")
		} else {
			sinks = append(sinks, store)
		}
	}
	return sinks
}

// newOrchestrator wires the connected session into a request orchestrator.
func (a *app) newOrchestrator(onToolUse func(agent.ToolUse), opts ...orchestrator.Option) (*orchestrator.Orchestrator, error) {
	if a.client == nil {
		return nil, errors.New("not connected")
	}
	provider, err := newProvider(a.cfg)
	if err != nil {
		return nil, err
	}
	ocfg, err := orchestratorConfig(a.cfg, onToolUse)
	if err != nil {
		return nil, err
	}
	opts = append([]orchestrator.Option{orchestrator.WithRecorder(a.recorder())}, opts...)
	return orchestrator.New(ocfg, a.client, provider, a.logger, opts...)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func newProvider(cfg *config.Config) (agent.LLMProvider, error) {
	factory := &agent.ProviderFactory{}
	return factory.NewProvider(agent.AuthProfile{
		ID:       "default",
		Provider: cfg.Model.Provider,
		APIKey:   cfg.Model.APIKey,
		BaseURL:  cfg.Model.BaseURL,
	})
}

// orchestratorConfig translates file configuration into orchestrator settings.
func orchestratorConfig(cfg *config.Config, onToolUse func(agent.ToolUse)) (orchestrator.Config, error) {
	schemaPolicy, err := orchestrator.ParsePolicy(cfg.Schema.Policy, orchestrator.PolicyBestEffort)
	if err != nil {
		return orchestrator.Config{}, fmt.Errorf("schema: %w", err)
	}
	catalogPolicy, err := orchestrator.ParsePolicy(cfg.Catalog.Policy, orchestrator.PolicyFatal)
	if err != nil {
		return orchestrator.Config{}, fmt.Errorf("catalog: %w", err)
	}

	var policy *toolexecutor.ToolPolicy
	if len(cfg.Tools.Allow) > 0 || len(cfg.Tools.Deny) > 0 {
		policy = &toolexecutor.ToolPolicy{Allow: cfg.Tools.Allow, Deny: cfg.Tools.Deny}
	}

	return orchestrator.Config{
		Model: cfg.Model.ID,
		Planning: planner.Config{
			MaxTokens:   cfg.Planning.MaxTokens,
			Temperature: cfg.Model.Temperature,
		},
		Execution: planner.ExecutorConfig{
			MaxTokens:     cfg.Execution.MaxTokens,
			MaxIterations: cfg.Execution.MaxIterations,
			Temperature:   cfg.Model.Temperature,
			OnToolUse:     onToolUse,
		},
		Tools: toolexecutor.Config{
			ValidateArguments: cfg.Tools.ValidateArguments,
			Timeout:           cfg.Tools.Timeout(),
			MaxOutputBytes:    cfg.Tools.MaxOutputBytes,
			Policy:            policy,
		},
		Schema: orchestrator.SchemaConfig{
			URIs:     cfg.Schema.URIs,
			Discover: cfg.Schema.Discover,
			Pattern:  cfg.Schema.Pattern,
			Policy:   schemaPolicy,
		},
		CatalogPolicy: catalogPolicy,
	}, nil
}
