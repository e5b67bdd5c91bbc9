package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered EventType = "user_registered"
	EventTaskCreated    EventType = "task_created"
	EventTaskUpdated    EventType = "task_updated"
	EventTaskCompleted  EventType = "task_completed"
	EventTaskDeleted    EventType = "task_deleted"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TaskID    string      `json:"task_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TaskPayload describes the task snapshot carried on task events.
type TaskPayload struct {
	Title string `json:"title"`
	Done  bool   `json:"done"`
	Owner string `json:"owner"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Username string `json:"username"`
}
