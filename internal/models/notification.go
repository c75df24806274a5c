package models

import "time"

// EventType names a tracking event that may produce a notification.
type EventType string

const (
	EventStarted   EventType = "started"
	EventMilestone EventType = "milestone"
	EventIssue     EventType = "issue"
	EventCompleted EventType = "completed"
)

// Notification is the delivery-agnostic payload handed to senders.
type Notification struct {
	ID        string         `json:"id"`
	EventType EventType      `json:"event_type"`
	Component string         `json:"component"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}
