package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Activity is an authored MCQ item stored with its content document.
type Activity struct {
	ID         uuid.UUID       `json:"id"`
	Title      string          `json:"title"`
	EngineType string          `json:"engine_type"`
	AuthorID   string          `json:"author_id"`
	Content    json.RawMessage `json:"content"`
	Version    int             `json:"version"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// CreateActivityRequest is the payload for creating an activity.
type CreateActivityRequest struct {
	Title      string          `json:"title" binding:"required,min=3,max=255"`
	EngineType string          `json:"engine_type" binding:"omitempty,max=64"`
	Content    json.RawMessage `json:"content" binding:"required"`
}

// UpdateActivityRequest is the payload for replacing an activity's title or content.
type UpdateActivityRequest struct {
	Title   string          `json:"title" binding:"omitempty,min=3,max=255"`
	Content json.RawMessage `json:"content" binding:"omitempty"`
}

// ActivityResult is the stored result of one learner on one activity.
type ActivityResult struct {
	ActivityID  uuid.UUID       `json:"activity_id"`
	UserID      string          `json:"user_id"`
	ActivityRef string          `json:"activity_ref"`
	Final       bool            `json:"final"`
	Score       int             `json:"score"`
	Answer      string          `json:"answer"`
	Report      json.RawMessage `json:"report"`
	SubmittedAt *time.Time      `json:"submitted_at,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ResultJob is queued on every renderer save for the result worker.
type ResultJob struct {
	ActivityID  string         `json:"activity_id"`
	UserID      string         `json:"user_id"`
	ActivityRef string         `json:"activity_ref"`
	Final       bool           `json:"final"`
	Result      ResultEnvelope `json:"result"`
	SavedAt     time.Time      `json:"saved_at"`
}

// ContentJob is queued when an author saves the editor document.
type ContentJob struct {
	ActivityID string          `json:"activity_id"`
	UserID     string          `json:"user_id"`
	Document   json.RawMessage `json:"document"`
	QueuedAt   time.Time       `json:"queued_at"`
}
