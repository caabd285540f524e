package shell

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/mcq-engine/internal/config"
	"github.com/stemsi/mcq-engine/internal/engine"
	"github.com/stemsi/mcq-engine/internal/model"
)

// DraftTTL bounds how long an unsaved editor document is kept.
const DraftTTL = 24 * time.Hour

// EditorAdaptor keeps the author's working document as a Redis draft and queues saved
// documents for the content worker.
type EditorAdaptor struct {
	rdb     *redis.Client
	log     zerolog.Logger
	binding Binding
}

// NewEditorAdaptor creates an adaptor bound to one author on one activity.
func NewEditorAdaptor(rdb *redis.Client, log zerolog.Logger, b Binding) *EditorAdaptor {
	return &EditorAdaptor{
		rdb:     rdb,
		log:     log.With().Str("component", "editor_adaptor").Str("activity_id", b.ActivityID).Logger(),
		binding: b,
	}
}

var _ engine.EditorAdaptor = (*EditorAdaptor)(nil)

// ItemChangedInEditor stores the draft and notifies listeners of the change.
func (a *EditorAdaptor) ItemChangedInEditor(ctx context.Context, doc *model.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	event, err := json.Marshal(newEvent(EventItemChanged, a.binding, raw))
	if err != nil {
		return err
	}

	pipe := a.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.EditorDraftKey(a.binding.ActivityID, a.binding.UserID), raw, DraftTTL)
	pipe.Publish(ctx, config.CacheKey.ActivityEventsChannel(a.binding.ActivityID), event)
	_, err = pipe.Exec(ctx)
	return err
}

// SubmitEditChanges queues the document for persistence and discards the draft.
func (a *EditorAdaptor) SubmitEditChanges(ctx context.Context, doc *model.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	job, err := json.Marshal(model.ContentJob{
		ActivityID: a.binding.ActivityID,
		UserID:     a.binding.UserID,
		Document:   raw,
		QueuedAt:   time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	pipe := a.rdb.TxPipeline()
	pipe.RPush(ctx, config.WorkerKey.PersistContentQueue, job)
	pipe.Del(ctx, config.CacheKey.EditorDraftKey(a.binding.ActivityID, a.binding.UserID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("queue content: %w", err)
	}

	a.log.Info().Str("user_id", a.binding.UserID).Msg("Edited content queued")
	return nil
}
