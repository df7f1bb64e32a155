// Package artifacts persists what each request produced: plan and answer
// text files, a JSONL transcript and a sqlite run history. None of these
// formats are a stable interface.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harun/mcpilot/pkg/planner"
)

// Run is everything known about one processed request.
type Run struct {
	ID         string
	TraceID    string
	Request    string
	Plan       *planner.Plan            // nil if planning failed
	Execution  *planner.ExecutionResult // nil if execution failed or never ran
	Answer     string                   // text returned to the caller
	Error      string                   // empty on success
	StartedAt  time.Time
	FinishedAt time.Time
}

// Succeeded reports whether the run produced an answer without error.
func (r *Run) Succeeded() bool {
	return r.Error == ""
}

// Recorder stores a finished run.
type Recorder interface {
	Record(ctx context.Context, run *Run) error
}

// Multi fans a run out to several recorders and joins their errors.
type Multi []Recorder

// Record calls every recorder even if an earlier one fails.
func (m Multi) Record(ctx context.Context, run *Run) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Record(ctx, run); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards runs.
type Nop struct{}

func (Nop) Record(context.Context, *Run) error { return nil }

// validateRunID keeps run IDs usable as file names.
func validateRunID(id string) error {
	if id == "" {
		return fmt.Errorf("run id cannot be empty")
	}
	if strings.Contains(id, "..") {
		return fmt.Errorf("run id cannot contain '..'")
	}
	if strings.ContainsAny(id, "/\\") {
		return fmt.Errorf("run id cannot contain path separators")
	}
	if strings.Contains(id, "\x00") {
		return fmt.Errorf("run id cannot contain null bytes")
	}
	return nil
}
