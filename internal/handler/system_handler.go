package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/mcq-engine/internal/config"
	"github.com/stemsi/mcq-engine/internal/response"
	"github.com/stemsi/mcq-engine/internal/service"
)

const healthTimeout = 2 * time.Second

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

// SystemHandler reports service health and runtime metrics.
type SystemHandler struct {
	rdb       *redis.Client
	sessions  *service.SessionService
	checks    map[string]HealthCheck
	startTime time.Time
	log       zerolog.Logger
}

func NewSystemHandler(rdb *redis.Client, sessions *service.SessionService, checks map[string]HealthCheck, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		rdb:       rdb,
		sessions:  sessions,
		checks:    checks,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type systemMetrics struct {
	Timestamp int64  `json:"timestamp"`
	Uptime    string `json:"uptime"`

	// Go Application
	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heap_alloc"`
	HeapSys    uint64 `json:"heap_sys"`
	NumGC      uint32 `json:"num_gc"`
	GoVersion  string `json:"go_version"`
	NumCPU     int    `json:"num_cpu"`

	// Engine sessions
	RendererSessions int `json:"renderer_sessions"`
	EditorSessions   int `json:"editor_sessions"`

	// Worker Queues
	QueueResults int64 `json:"queue_results"`
	QueueContent int64 `json:"queue_content"`
}

// Health godoc
// GET /health
// Runs every dependency check; any failure reports 503.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.log.Warn().Err(err).Str("dependency", name).Msg("Health check failed")
			deps[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	response.Success(c, status, gin.H{"status": state, "dependencies": deps})
}

// Metrics godoc
// GET /api/v1/system/metrics
func (h *SystemHandler) Metrics(c *gin.Context) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	m := systemMetrics{
		Timestamp:  time.Now().Unix(),
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  mem.HeapAlloc,
		HeapSys:    mem.HeapSys,
		NumGC:      mem.NumGC,
		GoVersion:  runtime.Version(),
		NumCPU:     runtime.NumCPU(),
	}
	m.RendererSessions, m.EditorSessions = h.sessions.Count()

	if h.rdb != nil {
		ctx := c.Request.Context()
		pipe := h.rdb.Pipeline()
		results := pipe.LLen(ctx, config.WorkerKey.PersistResultsQueue)
		content := pipe.LLen(ctx, config.WorkerKey.PersistContentQueue)
		if _, err := pipe.Exec(ctx); err != nil {
			h.log.Warn().Err(err).Msg("Queue length lookup failed")
		}
		m.QueueResults = results.Val()
		m.QueueContent = content.Val()
	}

	response.Success(c, http.StatusOK, m)
}
