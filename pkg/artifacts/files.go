package artifacts

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/harun/mcpilot/internal/tracing"
	"github.com/harun/mcpilot/pkg/agent"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

const (
	PlanningLogName  = "planning_log.txt"
	ExecutionLogName = "execution_log.txt"
	transcriptDir    = "runs"
)

// Transcript entry kinds.
const (
	EntryRequest = "request"
	EntryPlan    = "plan"
	EntryMessage = "message"
	EntryAnswer  = "answer"
	EntryError   = "error"
)

// TranscriptEntry is one line of a run transcript.
type TranscriptEntry struct {
	RunID     string         `json:"run_id"`
	Kind      string         `json:"kind"`
	Text      string         `json:"text,omitempty"`
	Message   *agent.Message `json:"message,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// FileRecorder writes the latest plan and answer to fixed file names and a
// per-run JSONL transcript under dir.
type FileRecorder struct {
	dir    string
	logger zerolog.Logger
	mu     sync.Mutex
}

// NewFileRecorder creates dir (and its transcript subdirectory) if needed.
func NewFileRecorder(dir string, logger zerolog.Logger) (*FileRecorder, error) {
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(filepath.Join(dir, transcriptDir), 0700); err != nil {
		return nil, fmt.Errorf("failed to create artifacts directory: %w", err)
	}
	return &FileRecorder{
		dir:    dir,
		logger: logger.With().Str("component", "artifacts").Logger(),
	}, nil
}

// Dir returns the artifacts directory.
func (fr *FileRecorder) Dir() string {
	return fr.dir
}

// Record overwrites the planning and execution logs with this run's output
// and writes its transcript.
func (fr *FileRecorder) Record(ctx context.Context, run *Run) (err error) {
	ctx, span := tracing.StartSpan(ctx, "mcpilot/artifacts", "artifacts.files.record",
		attribute.String("run_id", run.ID),
	)
	defer func() { tracing.EndSpan(span, err) }()

	if err := validateRunID(run.ID); err != nil {
		return err
	}

	fr.mu.Lock()
	defer fr.mu.Unlock()

	if run.Plan != nil {
		if err := fr.writeFile(PlanningLogName, run.Plan.Document); err != nil {
			return err
		}
	}
	if run.Execution != nil {
		if err := fr.writeFile(ExecutionLogName, run.Execution.Answer); err != nil {
			return err
		}
	}
	if err := fr.writeTranscript(run); err != nil {
		return err
	}

	logger := tracing.LoggerFromContext(ctx, fr.logger)
	logger.Debug().
		Str("dir", fr.dir).
		Msg("Run artifacts written")
	return nil
}

func (fr *FileRecorder) writeFile(name, content string) error {
	path := filepath.Join(fr.dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (fr *FileRecorder) transcriptPath(runID string) string {
	return filepath.Join(fr.dir, transcriptDir, runID+".jsonl")
}

func (fr *FileRecorder) writeTranscript(run *Run) error {
	file, err := os.OpenFile(fr.transcriptPath(run.ID), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open transcript: %w", err)
	}
	defer file.Close()

	ts := run.StartedAt
	if ts.IsZero() {
		ts = time.Now()
	}

	entries := []TranscriptEntry{{RunID: run.ID, Kind: EntryRequest, Text: run.Request, Timestamp: ts}}
	if run.Plan != nil {
		entries = append(entries, TranscriptEntry{RunID: run.ID, Kind: EntryPlan, Text: run.Plan.Document, Timestamp: run.Plan.CreatedAt})
	}
	if run.Execution != nil {
		for i := range run.Execution.History {
			msg := run.Execution.History[i]
			entries = append(entries, TranscriptEntry{RunID: run.ID, Kind: EntryMessage, Message: &msg, Timestamp: ts})
		}
	}
	final := TranscriptEntry{RunID: run.ID, Kind: EntryAnswer, Text: run.Answer, Timestamp: run.FinishedAt}
	if run.Error != "" {
		final.Kind = EntryError
		final.Text = run.Error
	}
	entries = append(entries, final)

	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w)
	for _, entry := range entries {
		if err := enc.Encode(entry); err != nil {
			return fmt.Errorf("failed to write transcript: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return file.Sync()
}

// ReadTranscript loads the transcript for runID.
func (fr *FileRecorder) ReadTranscript(runID string) ([]TranscriptEntry, error) {
	if err := validateRunID(runID); err != nil {
		return nil, err
	}

	file, err := os.Open(fr.transcriptPath(runID))
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}
	defer file.Close()

	var entries []TranscriptEntry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		var entry TranscriptEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			fr.logger.Warn().Err(err).Int("line", lineNum).Str("run_id", runID).Msg("Skipping corrupted transcript line")
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	return entries, nil
}
