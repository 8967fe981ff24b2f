package event_bus

import "time"

const (
	EventCreatedType EventType = "event.created"
	EventUpdatedType EventType = "event.updated"
	EventDeletedType EventType = "event.deleted"
)

type EventCreated struct {
	Key       string
	Name      string
	Category  string
	StartTime time.Time
	// Duration in minutes.
	Duration int
}

type EventUpdated struct {
	// PreviousKey differs from Key only when the event was moved to a new start time.
	PreviousKey string
	Key         string
	Name        string
	Category    string
	StartTime   time.Time
	Duration    int
}

type EventDeleted struct {
	Key string
}
