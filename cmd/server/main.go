package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/mcq-engine/internal/config"
	"github.com/stemsi/mcq-engine/internal/database"
	"github.com/stemsi/mcq-engine/internal/handler"
	"github.com/stemsi/mcq-engine/internal/logger"
	"github.com/stemsi/mcq-engine/internal/middleware"
	"github.com/stemsi/mcq-engine/internal/repository"
	"github.com/stemsi/mcq-engine/internal/router"
	"github.com/stemsi/mcq-engine/internal/service"
	"github.com/stemsi/mcq-engine/internal/shell"
	"github.com/stemsi/mcq-engine/internal/validator"
	"github.com/stemsi/mcq-engine/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting MCQ engine")

	if cfg.ShellKeyHash == "" {
		log.Warn().Msg("SHELL_KEY_HASH is not set; launch endpoint is disabled")
	}

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	activityRepo := repository.NewActivityRepository(pool)
	resultRepo := repository.NewResultRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg)
	activityService := service.NewActivityService(activityRepo, service.NewRedisContentCache(rdb, cfg.ContentCacheTTL), log)
	resultService := service.NewResultService(resultRepo, rdb, log)
	exportService := service.NewExportService(resultRepo, log)
	sessionService := service.NewSessionService(activityService, resultService, shell.NewFactory(rdb, log), cfg, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	checks := map[string]handler.HealthCheck{
		"postgres": pool.Ping,
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}
	handlers := &router.Handlers{
		Launch:   handler.NewLaunchHandler(authService, log),
		Renderer: handler.NewRendererHandler(sessionService),
		Editor:   handler.NewEditorHandler(sessionService),
		Activity: handler.NewActivityHandler(activityService, exportService, log),
		WS:       handler.NewWSHandler(rdb, sessionService, log, cfg.AllowedOrigins),
		System:   handler.NewSystemHandler(rdb, sessionService, checks, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	resultWorker := worker.NewResultWorker(resultRepo, rdb, log, cfg.ResultBatchSize)
	contentWorker := worker.NewContentWorker(activityRepo, rdb, log)
	launchLimiter := middleware.NewRateLimiter(cfg.LaunchRateLimit, time.Minute)

	for _, run := range []func(context.Context){
		resultWorker.Start,
		contentWorker.Start,
		sessionService.Run,
		launchLimiter.Run,
	} {
		wg.Add(1)
		go func(run func(context.Context)) {
			defer wg.Done()
			run(workerCtx)
		}(run)
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, launchLimiter, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	wg.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
