package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("MAX_SUBMIT_RETRIES", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("MEDIA_DIR", "")
	t.Setenv("LAUNCH_RATE_LIMIT", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 10, cfg.MaxSubmitRetries)
	assert.Equal(t, "http://www.comprodls.com/m1.0/interaction/mcq", cfg.InteractionReference)
	assert.Nil(t, cfg.AllowedOrigins)
	assert.Equal(t, "./media", cfg.MediaDir)
	assert.Equal(t, 30, cfg.LaunchRateLimit)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("MAX_SUBMIT_RETRIES", "3")
	t.Setenv("SESSION_IDLE_MINUTES", "5")
	t.Setenv("JWT_EXPIRY_HOURS", "not-a-number")
	t.Setenv("LAUNCH_RATE_LIMIT", "5")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := Load()
	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 3, cfg.MaxSubmitRetries)
	assert.Equal(t, 5*time.Minute, cfg.SessionIdleTimeout)
	assert.Equal(t, 8*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 5, cfg.LaunchRateLimit)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "activity:a1:content", CacheKey.ActivityContentKey("a1"))
	assert.Equal(t, "user:u1:activity:a1:last_result", CacheKey.LastResultKey("a1", "u1"))
	assert.Equal(t, "user:u1:activity:a1:draft", CacheKey.EditorDraftKey("a1", "u1"))
	assert.Equal(t, "activity:a1:events", CacheKey.ActivityEventsChannel("a1"))
}
