package model

import (
	"time"

	"github.com/google/uuid"
)

// StartRendererRequest mounts the renderer for an activity.
type StartRendererRequest struct {
	ActivityID    uuid.UUID `json:"activity_id" binding:"required"`
	Layout        string    `json:"layout" binding:"omitempty,oneof=MCQ"`
	EngineType    string    `json:"engine_type" binding:"omitempty,max=64"`
	ActivityRef   string    `json:"activity_ref" binding:"omitempty,max=255"`
	DisplaySubmit *bool     `json:"display_submit"`
	ShowAnswers   bool      `json:"show_answers"`
}

// StartEditorRequest mounts the editor for an activity.
type StartEditorRequest struct {
	ActivityID uuid.UUID `json:"activity_id" binding:"required"`
	Layout     string    `json:"layout" binding:"omitempty,oneof=MCQ_EDITOR"`
}

type SelectOptionRequest struct {
	OptionKey string `json:"option_key" binding:"required,notblank,max=255"`
}

type ShowGradesRequest struct {
	ReviewAttempt bool `json:"review_attempt"`
}

type MoveOptionRequest struct {
	From *int `json:"from" binding:"required,min=0"`
	To   *int `json:"to" binding:"required,min=0"`
}

type SetCorrectRequest struct {
	OptionKey string `json:"option_key" binding:"required,notblank,max=255"`
}

type EditTextRequest struct {
	Text string `json:"text" binding:"max=65535"`
}

// SessionInfo is returned when a renderer or editor session is mounted.
type SessionInfo struct {
	SessionID  uuid.UUID `json:"session_id"`
	ActivityID uuid.UUID `json:"activity_id"`
	Mounted    bool      `json:"mounted"`
	ExpiresAt  time.Time `json:"expires_at"`
	View       any       `json:"view,omitempty"`
}
