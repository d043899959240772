package task

import (
	"errors"
	"time"

	"github.com/studiorevonza/Task.One-sub000/internal/model"
)

var ErrBadTransition = errors.New("invalid status transition")

// allowedTransitions is the forward chain plus the quick-toggle edges and
// reopen. Blocked tasks are NOT gated here: blocking is advisory, matching
// the product behavior (see DESIGN.md).
var allowedTransitions = map[model.Status][]model.Status{
	model.StatusTodo:       {model.StatusInProgress, model.StatusDone},
	model.StatusInProgress: {model.StatusReview, model.StatusTodo, model.StatusDone},
	model.StatusReview:     {model.StatusDone, model.StatusInProgress},
	model.StatusDone:       {model.StatusTodo},
}

// CanTransition reports whether moving from one status to another is legal.
// A no-op transition is always allowed.
func CanTransition(from, to model.Status) bool {
	if from == to {
		return true
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SetStatus applies a status change to the task, stamping UpdatedAt and
// appending a progress-update audit entry. Only status, the timestamp, and
// the audit list mutate.
func SetStatus(t *model.Task, to model.Status, userID string, now time.Time) error {
	if !CanTransition(t.Status, to) {
		return ErrBadTransition
	}
	if t.Status == to {
		return nil
	}
	t.ProgressUpdates = append(t.ProgressUpdates, model.ProgressUpdate{
		At:     now,
		UserID: userID,
		From:   t.Status,
		To:     to,
	})
	t.Status = to
	t.UpdatedAt = now
	return nil
}

// Toggle is the quick-completion control: it flips the task between todo
// and done, bypassing the intermediate states. Any non-done status toggles
// to done.
func Toggle(t *model.Task, userID string, now time.Time) {
	to := model.StatusDone
	if t.Status == model.StatusDone {
		to = model.StatusTodo
	}
	t.ProgressUpdates = append(t.ProgressUpdates, model.ProgressUpdate{
		At:     now,
		UserID: userID,
		From:   t.Status,
		To:     to,
	})
	t.Status = to
	t.UpdatedAt = now
}
