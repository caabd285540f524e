package websocket

import (
	"encoding/json"

	"github.com/stemsi/mcq-engine/internal/engine"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSelect Action = "select"
	ActionSubmit Action = "submit"
	ActionPing   Action = "ping"
)

// RequestPayload is every message a client may send. Fields not used by an action are ignored.
type RequestPayload struct {
	Action    Action `json:"action"`
	OptionKey string `json:"option_key,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventSelected  Event = "selected"
	EventSubmitted Event = "submitted"
	EventShell     Event = "shell"
	EventPong      Event = "pong"
	EventError     Event = "error"
)

// SaveResponse answers select and submit actions.
type SaveResponse struct {
	Event   Event               `json:"event"`
	Outcome engine.SaveOutcome  `json:"outcome"`
	View    engine.RendererView `json:"view"`
}

// ShellResponse forwards a notification published for the learner's activity.
type ShellResponse struct {
	Event   Event           `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
