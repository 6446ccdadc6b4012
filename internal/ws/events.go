package ws

import (
	"encoding/json"
	"time"
)

// Event types broadcast on the live feed.
const (
	EventProjectCreated = "project.created"
	EventProjectUpdated = "project.updated"
	EventProjectDeleted = "project.deleted"
	EventBacklogCreated = "backlog.created"
	EventBacklogUpdated = "backlog.updated"
	EventBacklogDeleted = "backlog.deleted"
)

// Event is the structured message sent to WebSocket clients.
type Event struct {
	Type    string          `json:"type"`
	ID      uint64          `json:"id"`
	Project string          `json:"project"`
	Data    json.RawMessage `json:"data"`
	Time    time.Time       `json:"time"`
}

// SubscribeMsg is sent by the client after connecting to request replay of
// the events it missed.
type SubscribeMsg struct {
	Type        string `json:"type"`
	LastEventID uint64 `json:"last_event_id"`
}

// ResetMsg tells the client to do a full refresh (requested events too old).
type ResetMsg struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// matches reports whether an event for project reaches a client subscribed
// to filter. An empty filter follows every project.
func matches(filter, project string) bool {
	return filter == "" || filter == project
}
