package model

import "time"

// LaunchRequest is sent by a shell to obtain a launch token for a learner or author.
type LaunchRequest struct {
	ShellKey   string `json:"shell_key" binding:"required"`
	TokenType  string `json:"token_type" binding:"required,oneof=learner author"`
	UserID     string `json:"user_id" binding:"required,max=255"`
	ActivityID string `json:"activity_id" binding:"omitempty,uuid"`
}

// LaunchResponse carries the issued launch token.
type LaunchResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
