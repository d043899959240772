package task

import (
	"context"
	"errors"

	"github.com/studiorevonza/Task.One-sub000/internal/model"
)

var (
	ErrNotFound        = errors.New("task not found")
	ErrSelfDependency  = errors.New("task cannot depend on itself")
	ErrDependencyCycle = errors.New("dependency would create a cycle")
)

// Patch is a partial update. nil pointer => "no change"; empty string for
// DueDate/DueTime/ProjectID/Category => clear.
type Patch struct {
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	Priority    *model.Priority `json:"priority,omitempty"`
	Category    *string         `json:"category,omitempty"`
	DueDate     *string         `json:"dueDate,omitempty"`
	DueTime     *string         `json:"dueTime,omitempty"`
	ProjectID   *string         `json:"projectId,omitempty"`

	// ReminderMinutes re-arms the reminder whenever it changes.
	ReminderMinutes *int `json:"reminderMinutes,omitempty"`
}

// ListFilter narrows List at the storage layer. Presentation filtering and
// ordering (free text, status, category, sort) happens in ProcessTasks over
// the returned collection.
type ListFilter struct {
	ProjectID string
}

// Repo is the single storage contract; MemoryRepo and SQLRepo are the two
// swappable implementations.
type Repo interface {
	Create(ctx context.Context, t model.Task) (model.Task, error)
	Get(ctx context.Context, id model.TaskID) (model.Task, error)
	Update(ctx context.Context, id model.TaskID, p Patch) (model.Task, error)
	Delete(ctx context.Context, id model.TaskID) error
	List(ctx context.Context, f ListFilter) ([]model.Task, error)

	SetStatus(ctx context.Context, id model.TaskID, to model.Status, userID string) (model.Task, error)
	Toggle(ctx context.Context, id model.TaskID, userID string) (model.Task, error)

	CycleReminder(ctx context.Context, id model.TaskID) (model.Task, error)
	// MarkReminderSent flips the sent flag under the store's lock and
	// reports whether this call was the one that flipped it.
	MarkReminderSent(ctx context.Context, id model.TaskID) (bool, error)

	AddDependency(ctx context.Context, id, dep model.TaskID) (model.Task, error)
	RemoveDependency(ctx context.Context, id, dep model.TaskID) (model.Task, error)
}

func normalizeTask(t *model.Task) {
	if t.Dependencies == nil {
		t.Dependencies = []model.TaskID{}
	}
	if t.Status == "" {
		t.Status = model.StatusTodo
	}
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
}

func applyPatch(t *model.Task, p Patch) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.DueTime != nil {
		t.DueTime = *p.DueTime
	}
	if p.ProjectID != nil {
		t.ProjectID = *p.ProjectID
	}
	if p.ReminderMinutes != nil && *p.ReminderMinutes != t.ReminderMinutes {
		t.ReminderMinutes = *p.ReminderMinutes
		t.ReminderSent = false
	}
}
