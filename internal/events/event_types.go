package events

import (
	"time"

	"github.com/spec-kit/library-gateway/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSessionBootstrapped  EventType = "session_bootstrapped"
	EventSessionAuthenticated EventType = "session_authenticated"
	EventSessionRefreshed     EventType = "session_refreshed"
	EventSessionCleared       EventType = "session_cleared"
)

// SessionEventTypes lists every session event, in lifecycle order.
var SessionEventTypes = []EventType{
	EventSessionBootstrapped,
	EventSessionAuthenticated,
	EventSessionRefreshed,
	EventSessionCleared,
}

// Event represents a state change published by the session coordinator.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Epoch     uint64      `json:"epoch"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// SessionPayload is the published session state.
type SessionPayload struct {
	Identity *domain.Identity `json:"identity,omitempty"`
	Loading  bool             `json:"loading"`
}
