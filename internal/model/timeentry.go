package model

import "time"

type TimeEntryID string

// TimeEntry is a single time-tracking record against a task.
// EndedAt is nil while the entry is still running.
type TimeEntry struct {
	ID        TimeEntryID `json:"id"`
	TaskID    TaskID      `json:"taskId"`
	UserID    string      `json:"userId,omitempty"`
	StartedAt time.Time   `json:"startedAt"`
	EndedAt   *time.Time  `json:"endedAt,omitempty"`
	Note      string      `json:"note,omitempty"`
}

// Duration reports the elapsed time of the entry; running entries are
// measured against now.
func (e TimeEntry) Duration(now time.Time) time.Duration {
	end := now
	if e.EndedAt != nil {
		end = *e.EndedAt
	}
	if end.Before(e.StartedAt) {
		return 0
	}
	return end.Sub(e.StartedAt)
}
