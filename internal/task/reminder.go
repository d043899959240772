package task

import (
	"time"

	"github.com/studiorevonza/Task.One-sub000/internal/model"
)

// ShouldFireReminder decides whether the task's one-time reminder is due.
// It fires once "now" enters the window [due - offset, ...) and stays armed
// until the caller marks it sent; delivery is fire-and-forget with no
// retry or re-arm on channel failure.
func ShouldFireReminder(t model.Task, now time.Time, loc *time.Location) bool {
	if t.ReminderMinutes <= 0 || t.ReminderSent {
		return false
	}
	due, ok := t.DueAt(loc)
	if !ok {
		return false
	}
	windowStart := due.Add(-time.Duration(t.ReminderMinutes) * time.Minute)
	return !now.Before(windowStart)
}

// CycleReminder advances the reminder offset through the bell control
// sequence and re-arms the reminder. Changing the offset always resets the
// sent flag so the new window can fire.
func CycleReminder(t *model.Task, now time.Time) {
	t.ReminderMinutes = model.NextReminderOffset(t.ReminderMinutes)
	t.ReminderSent = false
	t.UpdatedAt = now
}
