package artifacts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/harun/mcpilot/internal/tracing"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// ErrRunNotFound is returned by Get for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// RunSummary is one row of run history.
type RunSummary struct {
	ID           string        `json:"id"`
	TraceID      string        `json:"trace_id"`
	Request      string        `json:"request"`
	Plan         string        `json:"plan"`
	Answer       string        `json:"answer"`
	Error        string        `json:"error,omitempty"`
	Iterations   int           `json:"iterations"`
	ToolCalls    int           `json:"tool_calls"`
	ToolErrors   int           `json:"tool_errors"`
	Truncated    bool          `json:"truncated"`
	InputTokens  int           `json:"input_tokens"`
	OutputTokens int           `json:"output_tokens"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
}

// SQLiteStore keeps one row per run in a sqlite database.
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// OpenSQLiteStore opens (creating if needed) the history database at path.
func OpenSQLiteStore(path string, logger zerolog.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger.With().Str("component", "history").Logger(),
	}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s.logger.Debug().Str("path", path).Msg("Run history opened")
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			trace_id TEXT NOT NULL DEFAULT '',
			request TEXT NOT NULL,
			plan TEXT NOT NULL DEFAULT '',
			answer TEXT NOT NULL DEFAULT '',
			error TEXT NOT NULL DEFAULT '',
			iterations INTEGER NOT NULL DEFAULT 0,
			tool_calls INTEGER NOT NULL DEFAULT 0,
			tool_errors INTEGER NOT NULL DEFAULT 0,
			truncated INTEGER NOT NULL DEFAULT 0,
			input_tokens INTEGER NOT NULL DEFAULT 0,
			output_tokens INTEGER NOT NULL DEFAULT 0,
			started_at INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`)
	return err
}

// Record inserts or replaces the row for run.
func (s *SQLiteStore) Record(ctx context.Context, run *Run) (err error) {
	ctx, span := tracing.StartSpan(ctx, "mcpilot/artifacts", "artifacts.sqlite.record",
		attribute.String("run_id", run.ID),
	)
	defer func() { tracing.EndSpan(span, err) }()

	if run.ID == "" {
		return errors.New("run id cannot be empty")
	}

	var (
		plan                              string
		iterations, toolCalls, toolErrors int
		truncated                         bool
		inputTokens, outputTokens         int
	)
	if run.Plan != nil {
		plan = run.Plan.Document
		if run.Plan.Usage != nil {
			inputTokens += run.Plan.Usage.InputTokens
			outputTokens += run.Plan.Usage.OutputTokens
		}
	}
	if exec := run.Execution; exec != nil {
		iterations, toolCalls, toolErrors, truncated = exec.Iterations, exec.ToolCalls, exec.ToolErrors, exec.Truncated
		if exec.Usage != nil {
			inputTokens += exec.Usage.InputTokens
			outputTokens += exec.Usage.OutputTokens
		}
	}

	started := run.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	var duration time.Duration
	if !run.FinishedAt.IsZero() {
		duration = run.FinishedAt.Sub(started)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
			(id, trace_id, request, plan, answer, error, iterations, tool_calls, tool_errors,
			 truncated, input_tokens, output_tokens, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.TraceID, run.Request, plan, run.Answer, run.Error,
		iterations, toolCalls, toolErrors, truncated, inputTokens, outputTokens,
		started.UnixMilli(), duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

const selectRuns = `
	SELECT id, trace_id, request, plan, answer, error, iterations, tool_calls, tool_errors,
	       truncated, input_tokens, output_tokens, started_at, duration_ms
	FROM runs`

// Recent returns up to limit runs, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, selectRuns+` ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		summary, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}

// Get returns the run with id, or ErrRunNotFound.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*RunSummary, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, id)
	summary, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunSummary, error) {
	var (
		r          RunSummary
		startedMS  int64
		durationMS int64
	)
	err := row.Scan(&r.ID, &r.TraceID, &r.Request, &r.Plan, &r.Answer, &r.Error,
		&r.Iterations, &r.ToolCalls, &r.ToolErrors, &r.Truncated,
		&r.InputTokens, &r.OutputTokens, &startedMS, &durationMS)
	if err != nil {
		return RunSummary{}, err
	}
	r.StartedAt = time.UnixMilli(startedMS)
	r.Duration = time.Duration(durationMS) * time.Millisecond
	return r, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
