package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewer_Review(t *testing.T) {
	plan := &Plan{ID: "p", Document: "original"}

	t.Run("nil reviewer approves", func(t *testing.T) {
		var r *Reviewer
		got, err := r.Review(context.Background(), plan)
		require.NoError(t, err)
		assert.Same(t, plan, got)
	})

	t.Run("approve", func(t *testing.T) {
		r := NewReviewer(func(context.Context, *Plan) (ReviewDecision, string, error) {
			return ReviewApprove, "", nil
		})
		got, err := r.Review(context.Background(), plan)
		require.NoError(t, err)
		assert.Same(t, plan, got)
	})

	t.Run("modify returns an edited copy", func(t *testing.T) {
		r := NewReviewer(func(context.Context, *Plan) (ReviewDecision, string, error) {
			return ReviewModify, "edited", nil
		})
		got, err := r.Review(context.Background(), plan)
		require.NoError(t, err)
		assert.Equal(t, "edited", got.Document)
		assert.Equal(t, "original", plan.Document)
		assert.Equal(t, "p", got.ID)
	})

	t.Run("modify with empty document fails", func(t *testing.T) {
		r := NewReviewer(func(context.Context, *Plan) (ReviewDecision, string, error) {
			return ReviewModify, "  ", nil
		})
		_, err := r.Review(context.Background(), plan)
		assert.Error(t, err)
	})

	t.Run("reject", func(t *testing.T) {
		r := NewReviewer(func(context.Context, *Plan) (ReviewDecision, string, error) {
			return ReviewReject, "", nil
		})
		_, err := r.Review(context.Background(), plan)
		assert.ErrorIs(t, err, ErrPlanRejected)
	})

	t.Run("callback error", func(t *testing.T) {
		r := NewReviewer(func(context.Context, *Plan) (ReviewDecision, string, error) {
			return "", "", errors.New("stdin closed")
		})
		_, err := r.Review(context.Background(), plan)
		assert.ErrorContains(t, err, "stdin closed")
	})

	t.Run("unknown decision", func(t *testing.T) {
		r := NewReviewer(func(context.Context, *Plan) (ReviewDecision, string, error) {
			return "maybe", "", nil
		})
		_, err := r.Review(context.Background(), plan)
		assert.Error(t, err)
	})
}
