package activity

import "time"

type EventType string

const (
	EventTaskCreated       EventType = "task_created"
	EventTaskUpdated       EventType = "task_updated"
	EventTaskDeleted       EventType = "task_deleted"
	EventStatusChanged     EventType = "status_changed"
	EventTaskCompleted     EventType = "task_completed"
	EventDependencyAdded   EventType = "dependency_added"
	EventDependencyRemoved EventType = "dependency_removed"
	EventReminderFired     EventType = "reminder_fired"
	EventProjectCreated    EventType = "project_created"
	EventProjectDeleted    EventType = "project_deleted"
	EventTimerStarted      EventType = "timer_started"
	EventTimerStopped      EventType = "timer_stopped"
	EventSuggestionServed  EventType = "suggestion_served"
)

type Event struct {
	ID        int       `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  string    `json:"metadata"`
}

type EventMetadata map[string]interface{}
