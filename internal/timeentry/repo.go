package timeentry

import (
	"context"
	"errors"

	"github.com/studiorevonza/Task.One-sub000/internal/model"
)

var (
	ErrNotFound       = errors.New("time entry not found")
	ErrAlreadyRunning = errors.New("a time entry is already running for this task")
	ErrNotRunning     = errors.New("time entry is not running")
)

// ListFilter narrows List results. Empty fields match everything.
type ListFilter struct {
	TaskID string
	UserID string
}

type Repo interface {
	// Start opens a new running entry. At most one running entry per
	// task and user pair is allowed.
	Start(ctx context.Context, taskID model.TaskID, userID, note string) (model.TimeEntry, error)
	Stop(ctx context.Context, id model.TimeEntryID) (model.TimeEntry, error)
	Get(ctx context.Context, id model.TimeEntryID) (model.TimeEntry, error)
	List(ctx context.Context, f ListFilter) ([]model.TimeEntry, error)
	Delete(ctx context.Context, id model.TimeEntryID) error
}
