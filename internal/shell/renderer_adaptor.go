package shell

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/mcq-engine/internal/config"
	"github.com/stemsi/mcq-engine/internal/engine"
	"github.com/stemsi/mcq-engine/internal/model"
)

// LastResultTTL bounds how long the fast-lane copy of a learner's last report is kept.
const LastResultTTL = 24 * time.Hour

// RendererAdaptor reports renderer saves through Redis: the report is cached as the
// learner's last result and queued for the result worker.
type RendererAdaptor struct {
	rdb     *redis.Client
	log     zerolog.Logger
	binding Binding
}

// NewRendererAdaptor creates an adaptor bound to one learner on one activity.
func NewRendererAdaptor(rdb *redis.Client, log zerolog.Logger, b Binding) *RendererAdaptor {
	return &RendererAdaptor{
		rdb:     rdb,
		log:     log.With().Str("component", "renderer_adaptor").Str("activity_id", b.ActivityID).Logger(),
		binding: b,
	}
}

var _ engine.RendererAdaptor = (*RendererAdaptor)(nil)

func (a *RendererAdaptor) SubmitResults(ctx context.Context, result model.ResultEnvelope, activityRef string) (engine.Status, error) {
	return a.save(ctx, result, activityRef, true)
}

func (a *RendererAdaptor) SavePartialResults(ctx context.Context, result model.ResultEnvelope, activityRef string) (engine.Status, error) {
	return a.save(ctx, result, activityRef, false)
}

// CloseActivity tells the shell the attempt is over.
func (a *RendererAdaptor) CloseActivity(ctx context.Context) error {
	raw, err := json.Marshal(newEvent(EventActivityClosed, a.binding, nil))
	if err != nil {
		return err
	}
	return a.rdb.Publish(ctx, config.CacheKey.ActivityEventsChannel(a.binding.ActivityID), raw).Err()
}

func (a *RendererAdaptor) DisplaySubmit() bool { return a.binding.DisplaySubmit }
func (a *RendererAdaptor) ShowAnswers() bool   { return a.binding.ShowAnswers }

func (a *RendererAdaptor) save(ctx context.Context, result model.ResultEnvelope, activityRef string, final bool) (engine.Status, error) {
	job := model.ResultJob{
		ActivityID:  a.binding.ActivityID,
		UserID:      a.binding.UserID,
		ActivityRef: activityRef,
		Final:       final,
		Result:      result,
		SavedAt:     time.Now().UTC(),
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return engine.StatusError, fmt.Errorf("marshal result job: %w", err)
	}
	report, err := json.Marshal(model.SavedReport{Final: final, Report: result.Response})
	if err != nil {
		return engine.StatusError, fmt.Errorf("marshal report: %w", err)
	}

	key := config.CacheKey.LastResultKey(a.binding.ActivityID, a.binding.UserID)
	err = a.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		replace := decodeSaved(current).Accepts(final)
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if replace {
				pipe.Set(ctx, key, report, LastResultTTL)
			}
			pipe.RPush(ctx, config.WorkerKey.PersistResultsQueue, payload)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return engine.StatusError, fmt.Errorf("queue result: %w", err)
	}

	a.log.Debug().Bool("final", final).Str("user_id", a.binding.UserID).Msg("Result queued")
	return engine.StatusNoError, nil
}

// decodeSaved reads the fast-lane copy of a report. Missing or unreadable copies
// decode to nil so any save may replace them.
func decodeSaved(raw []byte) *model.SavedReport {
	if len(raw) == 0 {
		return nil
	}
	var saved model.SavedReport
	if err := json.Unmarshal(raw, &saved); err != nil {
		return nil
	}
	return &saved
}
