package activity

import (
	"encoding/json"
	"time"
)

type Stats struct {
	Period            string            `json:"period"`
	EventCounts       map[EventType]int `json:"event_counts"`
	TasksCreated      int               `json:"tasks_created"`
	TaskCompletions   int               `json:"task_completions"`
	StatusChanges     map[string]int    `json:"status_changes"`
	RemindersFired    int               `json:"reminders_fired"`
	TimersStarted     int               `json:"timers_started"`
	CompletionsPerDay float64           `json:"completions_per_day"`
	SuggestionsServed int               `json:"suggestions_served"`
}

// CalculateStats aggregates events recorded since the given time.
func CalculateStats(events []Event, since, now time.Time) (Stats, error) {
	stats := Stats{
		Period:        since.Format("2006-01-02"),
		EventCounts:   make(map[EventType]int),
		StatusChanges: make(map[string]int),
	}

	for _, event := range events {
		stats.EventCounts[event.Type]++

		var metadata EventMetadata
		if err := json.Unmarshal([]byte(event.Metadata), &metadata); err != nil {
			continue
		}

		switch event.Type {
		case EventTaskCreated:
			stats.TasksCreated++
		case EventTaskCompleted:
			stats.TaskCompletions++
		case EventStatusChanged:
			if to, ok := metadata["to"].(string); ok {
				stats.StatusChanges[to]++
			}
		case EventReminderFired:
			stats.RemindersFired++
		case EventTimerStarted:
			stats.TimersStarted++
		case EventSuggestionServed:
			stats.SuggestionsServed++
		}
	}

	days := now.Sub(since).Hours() / 24
	if days >= 1 {
		stats.CompletionsPerDay = float64(stats.TaskCompletions) / days
	} else {
		stats.CompletionsPerDay = float64(stats.TaskCompletions)
	}

	return stats, nil
}
