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
)

const (
	ResultBatchTimeout = 2 * time.Second
	ResultPollTimeout  = 1 * time.Second
)

// ResultStore persists learner results.
type ResultStore interface {
	Upsert(ctx context.Context, res *model.ActivityResult) error
	UpsertBatch(ctx context.Context, results []model.ActivityResult) error
}

// ResultWorker consumes persist_results_queue and upserts results in batches.
type ResultWorker struct {
	store     ResultStore
	rdb       *redis.Client
	log       zerolog.Logger
	batchSize int
}

func NewResultWorker(store ResultStore, rdb *redis.Client, log zerolog.Logger, batchSize int) *ResultWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &ResultWorker{
		store:     store,
		rdb:       rdb,
		log:       log.With().Str("component", "result_worker").Logger(),
		batchSize: batchSize,
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")

	batch := make([]string, 0, w.batchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= w.batchSize || time.Since(lastFlush) >= ResultBatchTimeout) {
			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			w.drain(context.Background())
			return

		default:
			item, err := w.rdb.BLPop(ctx, ResultPollTimeout, config.WorkerKey.PersistResultsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}
			batch = append(batch, item[1])
		}
	}
}

// ----------------------------------------------------------------
// Batch upsert with per-item fallback
// ----------------------------------------------------------------

func (w *ResultWorker) flushSafe(ctx context.Context, raws []string) {
	if len(raws) == 0 {
		return
	}

	results := make([]model.ActivityResult, 0, len(raws))
	kept := make([]string, 0, len(raws))
	for _, raw := range raws {
		res, err := decodeResultJob([]byte(raw))
		if err != nil {
			w.log.Error().Err(err).Msg("Invalid result payload, discarding")
			continue
		}
		results = append(results, *res)
		kept = append(kept, raw)
	}

	err := w.store.UpsertBatch(ctx, results)
	if err == nil {
		w.log.Debug().Int("count", len(results)).Msg("Results persisted")
		return
	}
	w.log.Warn().Err(err).Msg("Batch upsert failed, using fallback")

	for i := range results {
		if err := w.store.Upsert(ctx, &results[i]); err != nil {
			w.log.Error().Err(err).
				Str("activity_id", results[i].ActivityID.String()).
				Str("user_id", results[i].UserID).
				Msg("Persist error, requeueing")
			w.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, kept[i])
		}
	}
}

// drain persists everything still queued before shutdown.
func (w *ResultWorker) drain(ctx context.Context) {
	drained := 0
	for {
		raw, err := w.rdb.LPop(ctx, config.WorkerKey.PersistResultsQueue).Result()
		if err != nil {
			break
		}
		res, err := decodeResultJob([]byte(raw))
		if err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}
		if err := w.store.Upsert(ctx, res); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining results")
	}
}

// decodeResultJob turns a queued job into the row stored for the learner.
func decodeResultJob(raw []byte) (*model.ActivityResult, error) {
	var job model.ResultJob
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("unmarshal result job: %w", err)
	}
	activityID, err := uuid.Parse(job.ActivityID)
	if err != nil {
		return nil, fmt.Errorf("activity id: %w", err)
	}
	if job.UserID == "" {
		return nil, fmt.Errorf("result job without user id")
	}

	report, err := json.Marshal(job.Result.Response)
	if err != nil {
		return nil, err
	}

	res := &model.ActivityResult{
		ActivityID:  activityID,
		UserID:      job.UserID,
		ActivityRef: job.ActivityRef,
		Final:       job.Final,
		Report:      report,
	}
	for _, item := range job.Result.Response.Results {
		res.Score += item.Score
	}
	if len(job.Result.Response.Results) > 0 {
		res.Answer = job.Result.Response.Results[0].Answer
	}
	return res, nil
}
