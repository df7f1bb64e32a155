package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ReviewDecision is the outcome of presenting a plan before execution.
type ReviewDecision string

const (
	ReviewApprove ReviewDecision = "approve" // execute plan as-is
	ReviewModify  ReviewDecision = "modify"  // execute an edited document
	ReviewReject  ReviewDecision = "reject"  // do not execute
)

// ErrPlanRejected is returned when the reviewer declines a plan.
var ErrPlanRejected = errors.New("plan rejected by reviewer")

// ReviewCallback presents plan and returns a decision. For ReviewModify the
// second return value is the replacement document.
type ReviewCallback func(ctx context.Context, plan *Plan) (ReviewDecision, string, error)

// Reviewer gates execution on a human or programmatic plan review.
type Reviewer struct {
	callback ReviewCallback
}

// NewReviewer creates a reviewer. A nil callback approves everything.
func NewReviewer(callback ReviewCallback) *Reviewer {
	return &Reviewer{callback: callback}
}

// Review returns the plan to execute, which may be an edited copy.
func (r *Reviewer) Review(ctx context.Context, plan *Plan) (*Plan, error) {
	if r == nil || r.callback == nil {
		return plan, nil
	}
	if plan == nil {
		return nil, fmt.Errorf("plan cannot be nil")
	}

	decision, document, err := r.callback(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("review callback failed: %w", err)
	}

	switch decision {
	case ReviewApprove:
		return plan, nil
	case ReviewModify:
		if strings.TrimSpace(document) == "" {
			return nil, fmt.Errorf("modified plan document is empty")
		}
		edited := *plan
		edited.Document = document
		return &edited, nil
	case ReviewReject:
		return nil, ErrPlanRejected
	default:
		return nil, fmt.Errorf("unknown review decision: %s", decision)
	}
}
