package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/mcq-engine/internal/config"
	"github.com/stemsi/mcq-engine/internal/model"
	"github.com/stemsi/mcq-engine/internal/shell"
)

// ContentStore persists edited content documents.
type ContentStore interface {
	UpdateContent(ctx context.Context, id uuid.UUID, content json.RawMessage) (int, error)
}

// ContentWorker consumes persist_content_queue, stores edited documents and invalidates
// the cached copy.
type ContentWorker struct {
	store ContentStore
	rdb   *redis.Client
	log   zerolog.Logger
}

func NewContentWorker(store ContentStore, rdb *redis.Client, log zerolog.Logger) *ContentWorker {
	return &ContentWorker{
		store: store,
		rdb:   rdb,
		log:   log.With().Str("component", "content_worker").Logger(),
	}
}

// Start begins the worker loop. Call in a goroutine.
func (w *ContentWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *ContentWorker) processNext(ctx context.Context) {
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PersistContentQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(result) < 2 {
		return
	}

	job, activityID, err := decodeContentJob([]byte(result[1]))
	if err != nil {
		w.log.Error().Err(err).Msg("Invalid content payload, discarding")
		return
	}

	if err := w.persist(ctx, job, activityID); err != nil {
		w.log.Error().Err(err).
			Str("activity_id", job.ActivityID).
			Msg("Persist error, retrying in 5s")
		w.rdb.RPush(ctx, config.WorkerKey.PersistContentQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *ContentWorker) persist(ctx context.Context, job *model.ContentJob, activityID uuid.UUID) error {
	version, err := w.store.UpdateContent(ctx, activityID, job.Document)
	if err != nil {
		return err
	}

	payload, _ := json.Marshal(map[string]int{"version": version})
	event, _ := json.Marshal(shell.Event{
		Type:       shell.EventContentSaved,
		ActivityID: job.ActivityID,
		UserID:     job.UserID,
		At:         time.Now().UTC(),
		Payload:    payload,
	})

	pipe := w.rdb.Pipeline()
	pipe.Del(ctx, config.CacheKey.ActivityContentKey(job.ActivityID))
	pipe.Publish(ctx, config.CacheKey.ActivityEventsChannel(job.ActivityID), event)
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Warn().Err(err).Msg("Cache invalidation failed")
	}

	w.log.Info().Str("activity_id", job.ActivityID).Int("version", version).Msg("Content saved")
	return nil
}

// drain processes all remaining items in the queue before shutdown.
func (w *ContentWorker) drain(ctx context.Context) {
	drained := 0
	for {
		raw, err := w.rdb.LPop(ctx, config.WorkerKey.PersistContentQueue).Result()
		if err != nil {
			break
		}
		job, activityID, err := decodeContentJob([]byte(raw))
		if err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}
		if err := w.persist(ctx, job, activityID); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.PersistContentQueue, raw)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}

func decodeContentJob(raw []byte) (*model.ContentJob, uuid.UUID, error) {
	var job model.ContentJob
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, uuid.Nil, fmt.Errorf("unmarshal content job: %w", err)
	}
	activityID, err := uuid.Parse(job.ActivityID)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("activity id: %w", err)
	}
	if len(job.Document) == 0 {
		return nil, uuid.Nil, fmt.Errorf("content job without document")
	}

	var doc model.Document
	if err := json.Unmarshal(job.Document, &doc); err != nil {
		return nil, uuid.Nil, fmt.Errorf("document: %w", err)
	}
	return &job, activityID, nil
}
