package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/mcq-engine/internal/model"
)

// ResultRepository handles learner result data access.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// A partial save never overwrites a final submission.
const upsertResultSQL = `
	INSERT INTO activity_results (activity_id, user_id, activity_ref, final, score, answer, report, submitted_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, CASE WHEN $4 THEN NOW() END, NOW())
	ON CONFLICT (activity_id, user_id) DO UPDATE
	SET activity_ref = EXCLUDED.activity_ref,
	    final        = EXCLUDED.final,
	    score        = EXCLUDED.score,
	    answer       = EXCLUDED.answer,
	    report       = EXCLUDED.report,
	    submitted_at = COALESCE(EXCLUDED.submitted_at, activity_results.submitted_at),
	    updated_at   = NOW()
	WHERE NOT activity_results.final OR EXCLUDED.final`

// Upsert stores the latest result of a learner on an activity.
func (r *ResultRepository) Upsert(ctx context.Context, res *model.ActivityResult) error {
	_, err := r.pool.Exec(ctx, upsertResultSQL,
		res.ActivityID, res.UserID, res.ActivityRef, res.Final, res.Score, res.Answer, res.Report)
	return err
}

// UpsertBatch stores many results in one round trip.
func (r *ResultRepository) UpsertBatch(ctx context.Context, results []model.ActivityResult) error {
	if len(results) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, res := range results {
		batch.Queue(upsertResultSQL,
			res.ActivityID, res.UserID, res.ActivityRef, res.Final, res.Score, res.Answer, res.Report)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

// GetLast retrieves the stored result of a learner on an activity.
func (r *ResultRepository) GetLast(ctx context.Context, activityID uuid.UUID, userID string) (*model.ActivityResult, error) {
	res := &model.ActivityResult{}
	err := r.pool.QueryRow(ctx,
		`SELECT activity_id, user_id, activity_ref, final, score, answer, report, submitted_at, updated_at
		 FROM activity_results WHERE activity_id = $1 AND user_id = $2`,
		activityID, userID,
	).Scan(&res.ActivityID, &res.UserID, &res.ActivityRef, &res.Final, &res.Score,
		&res.Answer, &res.Report, &res.SubmittedAt, &res.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ListByActivity returns every stored result for an activity, submitted ones first.
func (r *ResultRepository) ListByActivity(ctx context.Context, activityID uuid.UUID) ([]model.ActivityResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT activity_id, user_id, activity_ref, final, score, answer, report, submitted_at, updated_at
		 FROM activity_results WHERE activity_id = $1
		 ORDER BY final DESC, user_id`, activityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.ActivityResult
	for rows.Next() {
		var res model.ActivityResult
		if err := rows.Scan(&res.ActivityID, &res.UserID, &res.ActivityRef, &res.Final, &res.Score,
			&res.Answer, &res.Report, &res.SubmittedAt, &res.UpdatedAt); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
