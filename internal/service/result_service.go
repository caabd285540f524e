package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/mcq-engine/internal/config"
	"github.com/stemsi/mcq-engine/internal/model"
	"github.com/stemsi/mcq-engine/internal/repository"
)

// ErrNoSavedResult is returned when a learner has nothing saved for an activity.
var ErrNoSavedResult = errors.New("no saved result")

// ResultStore reads stored learner results.
type ResultStore interface {
	GetLast(ctx context.Context, activityID uuid.UUID, userID string) (*model.ActivityResult, error)
	ListByActivity(ctx context.Context, activityID uuid.UUID) ([]model.ActivityResult, error)
}

// ResultService serves learners' saved reports. The Redis copy written by the renderer
// adaptor is read first since the worker may not have persisted it yet.
type ResultService struct {
	store ResultStore
	rdb   *redis.Client
	log   zerolog.Logger
}

// NewResultService creates a new ResultService.
func NewResultService(store ResultStore, rdb *redis.Client, log zerolog.Logger) *ResultService {
	return &ResultService{
		store: store,
		rdb:   rdb,
		log:   log.With().Str("component", "result_service").Logger(),
	}
}

// LastReport returns the learner's most recently saved report on an activity and
// whether it was a final submit.
func (s *ResultService) LastReport(ctx context.Context, activityID uuid.UUID, userID string) (*model.SavedReport, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.LastResultKey(activityID.String(), userID)).Bytes()
	if err == nil {
		var saved model.SavedReport
		if err := json.Unmarshal(raw, &saved); err != nil {
			return nil, fmt.Errorf("unmarshal saved report: %w", err)
		}
		return &saved, nil
	}
	if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Last result cache read failed, falling back to database")
	}

	res, err := s.store.GetLast(ctx, activityID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoSavedResult
	}
	if err != nil {
		return nil, fmt.Errorf("get last result: %w", err)
	}
	saved := model.SavedReport{Final: res.Final}
	if err := json.Unmarshal(res.Report, &saved.Report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &saved, nil
}

// ListByActivity returns every stored result of an activity.
func (s *ResultService) ListByActivity(ctx context.Context, activityID uuid.UUID) ([]model.ActivityResult, error) {
	return s.store.ListByActivity(ctx, activityID)
}
