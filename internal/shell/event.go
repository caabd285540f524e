package shell

import (
	"encoding/json"
	"time"
)

// EventType names a notification published on an activity's events channel.
type EventType string

const (
	EventActivityClosed EventType = "activity_closed"
	EventItemChanged    EventType = "item_changed"
	EventContentSaved   EventType = "content_saved"
)

// Event is published to the shell over Redis PubSub.
type Event struct {
	Type       EventType       `json:"type"`
	ActivityID string          `json:"activity_id"`
	UserID     string          `json:"user_id"`
	SessionID  string          `json:"session_id,omitempty"`
	At         time.Time       `json:"at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Binding ties an adaptor to one engine session of a learner or author on one activity.
type Binding struct {
	ActivityID    string
	UserID        string
	SessionID     string
	DisplaySubmit bool
	ShowAnswers   bool
}

func newEvent(t EventType, b Binding, payload json.RawMessage) Event {
	return Event{
		Type:       t,
		ActivityID: b.ActivityID,
		UserID:     b.UserID,
		SessionID:  b.SessionID,
		At:         time.Now().UTC(),
		Payload:    payload,
	}
}

// Concerns reports whether the event belongs to the given user's session.
// Events not tied to a session reach every session of that user.
func (e Event) Concerns(userID, sessionID string) bool {
	if e.UserID != userID {
		return false
	}
	return e.SessionID == "" || e.SessionID == sessionID
}
