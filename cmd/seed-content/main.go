package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/stemsi/mcq-engine/internal/config"
	"github.com/stemsi/mcq-engine/internal/database"
	"github.com/stemsi/mcq-engine/internal/logger"
	"github.com/stemsi/mcq-engine/internal/model"
	"github.com/stemsi/mcq-engine/internal/repository"
	"github.com/stemsi/mcq-engine/internal/service"
)

func main() {
	var (
		file       string
		authorID   string
		title      string
		engineType string
	)
	flag.StringVar(&file, "file", "", "Path to the content JSON document")
	flag.StringVar(&authorID, "author", "", "Author user ID that owns the activity")
	flag.StringVar(&title, "title", "", "Activity title (defaults to the file name)")
	flag.StringVar(&engineType, "engine", model.LayoutMCQ, "Engine type")
	flag.Parse()

	if file == "" || authorID == "" {
		fmt.Println("Usage: seed-content -file content.json -author <user-id> [-title T] [-engine MCQ]")
		os.Exit(1)
	}
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	raw, err := os.ReadFile(file)
	if err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("Failed to read content file")
	}
	if !json.Valid(raw) {
		log.Fatal().Str("file", file).Msg("Content file is not valid JSON")
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	activityService := service.NewActivityService(
		repository.NewActivityRepository(pool),
		service.NewRedisContentCache(rdb, cfg.ContentCacheTTL),
		log,
	)

	activity, err := activityService.Create(ctx, authorID, &model.CreateActivityRequest{
		Title:      title,
		EngineType: engineType,
		Content:    raw,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create activity")
	}

	// Warm the content cache so the first launch skips Postgres.
	if _, err := activityService.LoadDocument(ctx, activity.ID); err != nil {
		log.Warn().Err(err).Msg("Cache warm-up failed")
	}

	fmt.Printf("Seeded activity '%s' with ID: %s\n", activity.Title, activity.ID)
}
