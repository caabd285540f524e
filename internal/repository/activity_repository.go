package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/mcq-engine/internal/model"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// ActivityRepository handles activity data access.
type ActivityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(pool *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{pool: pool}
}

// GetByID retrieves an activity by its UUID.
func (r *ActivityRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Activity, error) {
	a := &model.Activity{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, engine_type, author_id, content, version, created_at, updated_at
		 FROM activities WHERE id = $1`, id,
	).Scan(&a.ID, &a.Title, &a.EngineType, &a.AuthorID, &a.Content, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListPaginated retrieves activities, optionally filtered by author, newest first.
func (r *ActivityRepository) ListPaginated(ctx context.Context, authorID string, limit, offset int) ([]model.Activity, int, error) {
	where := ``
	var args []interface{}
	if authorID != "" {
		where = ` WHERE author_id = $1`
		args = append(args, authorID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM activities`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	next := len(args) + 1
	query := `SELECT id, title, engine_type, author_id, content, version, created_at, updated_at
	          FROM activities` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(next) + ` OFFSET $` + strconv.Itoa(next+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var activities []model.Activity
	for rows.Next() {
		var a model.Activity
		if err := rows.Scan(&a.ID, &a.Title, &a.EngineType, &a.AuthorID, &a.Content, &a.Version, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, err
		}
		activities = append(activities, a)
	}
	return activities, total, rows.Err()
}

// Create inserts a new activity.
func (r *ActivityRepository) Create(ctx context.Context, a *model.Activity) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO activities (title, engine_type, author_id, content)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, version, created_at, updated_at`,
		a.Title, a.EngineType, a.AuthorID, a.Content,
	).Scan(&a.ID, &a.Version, &a.CreatedAt, &a.UpdatedAt)
}

// Update replaces the title and/or content of an activity. Empty values leave the column as is.
// A content change bumps the version.
func (r *ActivityRepository) Update(ctx context.Context, id uuid.UUID, title string, content json.RawMessage) (*model.Activity, error) {
	var contentArg interface{}
	if len(content) > 0 {
		contentArg = content
	}

	a := &model.Activity{}
	err := r.pool.QueryRow(ctx,
		`UPDATE activities
		 SET title = COALESCE(NULLIF($1, ''), title),
		     content = COALESCE($2::jsonb, content),
		     version = version + CASE WHEN $2::jsonb IS NULL THEN 0 ELSE 1 END,
		     updated_at = NOW()
		 WHERE id = $3
		 RETURNING id, title, engine_type, author_id, content, version, created_at, updated_at`,
		title, contentArg, id,
	).Scan(&a.ID, &a.Title, &a.EngineType, &a.AuthorID, &a.Content, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// UpdateContent stores an edited content document and returns the new version.
func (r *ActivityRepository) UpdateContent(ctx context.Context, id uuid.UUID, content json.RawMessage) (int, error) {
	var version int
	err := r.pool.QueryRow(ctx,
		`UPDATE activities SET content = $1, version = version + 1, updated_at = NOW()
		 WHERE id = $2 RETURNING version`,
		content, id,
	).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return version, err
}

// Delete removes an activity and, by cascade, its results.
func (r *ActivityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM activities WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
