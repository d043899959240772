package model

import (
	"strings"
	"time"
)

type TaskID string

// Status is the canonical task state. Persistence variants with other
// spellings ("completed", "cancelled", upper-case) are mapped through
// ParseStatus at the storage boundary; the enum is never duplicated.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
)

// ParseStatus maps a stored or user-supplied status string to the canonical
// enum. Legacy terminal states ("completed", "cancelled") collapse to done.
func ParseStatus(s string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "todo", "to_do", "pending":
		return StatusTodo, true
	case "in_progress", "inprogress", "doing":
		return StatusInProgress, true
	case "review", "in_review":
		return StatusReview, true
	case "done", "completed", "cancelled", "canceled":
		return StatusDone, true
	default:
		return "", false
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Weight is the fixed sort weight. It is never persisted as a number.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

func ParsePriority(s string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow, true
	case "medium", "med":
		return PriorityMedium, true
	case "high":
		return PriorityHigh, true
	default:
		return "", false
	}
}

// Reminder offsets exposed by the cycling control, in minutes before due.
const (
	ReminderNone = 0
	Reminder15m  = 15
	Reminder1h   = 60
	Reminder1d   = 1440
)

// NextReminderOffset advances the bell control: none -> 15 -> 60 -> 1440 -> none.
// Arbitrary offsets set through the API cycle back to none.
func NextReminderOffset(current int) int {
	switch current {
	case ReminderNone:
		return Reminder15m
	case Reminder15m:
		return Reminder1h
	case Reminder1h:
		return Reminder1d
	default:
		return ReminderNone
	}
}

// ProgressUpdate is one audit entry recorded on every status change.
type ProgressUpdate struct {
	At     time.Time `json:"at"`
	UserID string    `json:"userId,omitempty"`
	From   Status    `json:"from"`
	To     Status    `json:"to"`
}

type Task struct {
	ID          TaskID   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      Status   `json:"status"`
	Priority    Priority `json:"priority"`
	Category    string   `json:"category,omitempty"`

	// DueDate is "2006-01-02"; DueTime is "15:04" and optional. Raw strings
	// are kept even when unparseable so degraded display still works.
	DueDate string `json:"dueDate,omitempty"`
	DueTime string `json:"dueTime,omitempty"`

	Dependencies []TaskID `json:"dependencies"`

	ReminderMinutes int  `json:"reminderMinutes,omitempty"`
	ReminderSent    bool `json:"reminderSent"`

	ProjectID string `json:"projectId,omitempty"`

	ProgressUpdates []ProgressUpdate `json:"progressUpdates,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DueAt combines DueDate and DueTime into a timestamp in loc.
// A task with no or unparseable due date reports ok=false; parse errors are
// swallowed, not surfaced.
func (t Task) DueAt(loc *time.Location) (time.Time, bool) {
	if strings.TrimSpace(t.DueDate) == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	layout := "2006-01-02"
	value := t.DueDate
	if strings.TrimSpace(t.DueTime) != "" {
		layout = "2006-01-02 15:04"
		value = t.DueDate + " " + t.DueTime
	}
	due, err := time.ParseInLocation(layout, value, loc)
	if err != nil {
		// Fall back to the date alone before giving up.
		due, err = time.ParseInLocation("2006-01-02", t.DueDate, loc)
		if err != nil {
			return time.Time{}, false
		}
	}
	return due, true
}

// DependsOn reports whether id is a direct dependency of the task.
func (t Task) DependsOn(id TaskID) bool {
	for _, d := range t.Dependencies {
		if d == id {
			return true
		}
	}
	return false
}
