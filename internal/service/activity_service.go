package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/mcq-engine/internal/config"
	"github.com/stemsi/mcq-engine/internal/model"
	"github.com/stemsi/mcq-engine/internal/response"
)

// Domain Errors
var (
	ErrNotActivityAuthor = errors.New("not the author of this activity")
	ErrInvalidContent    = errors.New("invalid content document")
	ErrCacheMiss         = errors.New("cache miss")
)

// ActivityStore is the persistence the activity service needs.
type ActivityStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Activity, error)
	ListPaginated(ctx context.Context, authorID string, limit, offset int) ([]model.Activity, int, error)
	Create(ctx context.Context, a *model.Activity) error
	Update(ctx context.Context, id uuid.UUID, title string, content json.RawMessage) (*model.Activity, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ContentCache holds serialized content documents keyed by activity.
type ContentCache interface {
	Get(ctx context.Context, activityID uuid.UUID) ([]byte, error)
	Set(ctx context.Context, activityID uuid.UUID, raw []byte) error
	Invalidate(ctx context.Context, activityID uuid.UUID) error
}

// RedisContentCache is the Redis fast lane for content documents.
type RedisContentCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisContentCache(rdb *redis.Client, ttl time.Duration) *RedisContentCache {
	return &RedisContentCache{rdb: rdb, ttl: ttl}
}

func (c *RedisContentCache) Get(ctx context.Context, activityID uuid.UUID) ([]byte, error) {
	raw, err := c.rdb.Get(ctx, config.CacheKey.ActivityContentKey(activityID.String())).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return raw, err
}

func (c *RedisContentCache) Set(ctx context.Context, activityID uuid.UUID, raw []byte) error {
	return c.rdb.Set(ctx, config.CacheKey.ActivityContentKey(activityID.String()), raw, c.ttl).Err()
}

func (c *RedisContentCache) Invalidate(ctx context.Context, activityID uuid.UUID) error {
	return c.rdb.Del(ctx, config.CacheKey.ActivityContentKey(activityID.String())).Err()
}

// ActivityService handles authored activities and serves their content documents.
type ActivityService struct {
	store ActivityStore
	cache ContentCache
	log   zerolog.Logger
}

// NewActivityService creates a new ActivityService.
func NewActivityService(store ActivityStore, cache ContentCache, log zerolog.Logger) *ActivityService {
	return &ActivityService{
		store: store,
		cache: cache,
		log:   log.With().Str("component", "activity_service").Logger(),
	}
}

// GetByID retrieves an activity by its UUID.
func (s *ActivityService) GetByID(ctx context.Context, id uuid.UUID) (*model.Activity, error) {
	return s.store.GetByID(ctx, id)
}

// LoadDocument returns the content document of an activity, from cache when possible.
func (s *ActivityService) LoadDocument(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	raw, err := s.cache.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			s.log.Warn().Err(err).Str("activity_id", id.String()).Msg("Content cache read failed")
		}

		activity, err := s.store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		raw = activity.Content

		if err := s.cache.Set(ctx, id, raw); err != nil {
			s.log.Warn().Err(err).Str("activity_id", id.String()).Msg("Content cache write failed")
		}
	}

	doc, err := decodeDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("activity %s: %w", id, err)
	}
	return doc, nil
}

// List retrieves activities of an author, newest first.
func (s *ActivityService) List(ctx context.Context, authorID string, page, perPage int) ([]model.Activity, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	activities, total, err := s.store.ListPaginated(ctx, authorID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if activities == nil {
		activities = []model.Activity{}
	}

	return activities, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}, nil
}

// Create validates the content document and stores a new activity.
func (s *ActivityService) Create(ctx context.Context, authorID string, req *model.CreateActivityRequest) (*model.Activity, error) {
	if _, err := decodeDocument(req.Content); err != nil {
		return nil, err
	}

	engineType := req.EngineType
	if engineType == "" {
		engineType = model.LayoutMCQ
	}
	activity := &model.Activity{
		Title:      req.Title,
		EngineType: engineType,
		AuthorID:   authorID,
		Content:    req.Content,
	}
	if err := s.store.Create(ctx, activity); err != nil {
		return nil, fmt.Errorf("create activity: %w", err)
	}

	s.log.Info().Str("activity_id", activity.ID.String()).Str("author_id", authorID).Msg("Activity created")
	return activity, nil
}

// Update replaces the title or content of an activity owned by authorID.
func (s *ActivityService) Update(ctx context.Context, id uuid.UUID, authorID string, req *model.UpdateActivityRequest) (*model.Activity, error) {
	if err := s.checkAuthor(ctx, id, authorID); err != nil {
		return nil, err
	}
	if len(req.Content) > 0 {
		if _, err := decodeDocument(req.Content); err != nil {
			return nil, err
		}
	}

	activity, err := s.store.Update(ctx, id, req.Title, req.Content)
	if err != nil {
		return nil, err
	}
	if len(req.Content) > 0 {
		s.invalidate(ctx, id)
	}
	return activity, nil
}

// Delete removes an activity owned by authorID.
func (s *ActivityService) Delete(ctx context.Context, id uuid.UUID, authorID string) error {
	if err := s.checkAuthor(ctx, id, authorID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// GetOwned retrieves an activity and checks that authorID wrote it.
func (s *ActivityService) GetOwned(ctx context.Context, id uuid.UUID, authorID string) (*model.Activity, error) {
	activity, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if activity.AuthorID != authorID {
		return nil, ErrNotActivityAuthor
	}
	return activity, nil
}

func (s *ActivityService) checkAuthor(ctx context.Context, id uuid.UUID, authorID string) error {
	_, err := s.GetOwned(ctx, id, authorID)
	return err
}

func (s *ActivityService) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("activity_id", id.String()).Msg("Content cache invalidation failed")
	}
}

func decodeDocument(raw []byte) (*model.Document, error) {
	if len(raw) == 0 {
		return nil, ErrInvalidContent
	}
	var doc model.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	return &doc, nil
}
