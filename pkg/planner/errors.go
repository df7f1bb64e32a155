package planner

import "fmt"

const (
	PhasePlanning  = "planning"
	PhaseExecution = "execution"
)

// PhaseError tags a model failure with the phase it happened in.
type PhaseError struct {
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("Error in %s phase: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}
