package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/mcq-engine/internal/model"
	"github.com/stemsi/mcq-engine/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newActivity(author string) *model.Activity {
	return &model.Activity{
		ID:         uuid.New(),
		Title:      "Capitals",
		EngineType: model.LayoutMCQ,
		AuthorID:   author,
		Content:    json.RawMessage(capitalsContent),
		Version:    1,
	}
}

func TestActivityService_LoadDocument(t *testing.T) {
	activity := newActivity("author-1")
	store := newFakeActivityStore(activity)
	cache := newFakeContentCache()
	svc := NewActivityService(store, cache, zerolog.Nop())
	ctx := context.Background()

	doc, err := svc.LoadDocument(ctx, activity.ID)
	require.NoError(t, err)
	require.NotNil(t, doc.Content)
	assert.Equal(t, "choiceB", doc.CorrectKey("i1"))
	assert.Equal(t, 1, store.gets)
	assert.Contains(t, cache.entries, activity.ID)

	_, err = svc.LoadDocument(ctx, activity.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, store.gets, "second load should be served from cache")

	_, err = svc.LoadDocument(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestActivityService_Create(t *testing.T) {
	svc := NewActivityService(newFakeActivityStore(), newFakeContentCache(), zerolog.Nop())
	ctx := context.Background()

	a, err := svc.Create(ctx, "author-1", &model.CreateActivityRequest{
		Title:   "Capitals",
		Content: json.RawMessage(capitalsContent),
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.Equal(t, model.LayoutMCQ, a.EngineType)
	assert.Equal(t, "author-1", a.AuthorID)

	_, err = svc.Create(ctx, "author-1", &model.CreateActivityRequest{
		Title:   "Broken",
		Content: json.RawMessage(`{"content": {"interactions": []}}`),
	})
	assert.ErrorIs(t, err, ErrInvalidContent)

	_, err = svc.Create(ctx, "author-1", &model.CreateActivityRequest{
		Title:   "Duplicate keys",
		Content: json.RawMessage(`{"content": {"interactions": {"i1": {"type": "MCQ", "MCQ": [{"choiceA": "flu"}, {"choiceA": "measles"}]}}}}`),
	})
	assert.ErrorIs(t, err, ErrInvalidContent)
}

func TestActivityService_UpdateAndDelete(t *testing.T) {
	activity := newActivity("author-1")
	store := newFakeActivityStore(activity)
	cache := newFakeContentCache()
	svc := NewActivityService(store, cache, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Update(ctx, activity.ID, "author-2", &model.UpdateActivityRequest{Title: "Mine now"})
	assert.ErrorIs(t, err, ErrNotActivityAuthor)

	updated, err := svc.Update(ctx, activity.ID, "author-1", &model.UpdateActivityRequest{Title: "European capitals"})
	require.NoError(t, err)
	assert.Equal(t, "European capitals", updated.Title)
	assert.Empty(t, cache.invalidated, "title change keeps cached content")

	updated, err = svc.Update(ctx, activity.ID, "author-1", &model.UpdateActivityRequest{Content: json.RawMessage(capitalsContent)})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, []uuid.UUID{activity.ID}, cache.invalidated)

	assert.ErrorIs(t, svc.Delete(ctx, activity.ID, "author-2"), ErrNotActivityAuthor)
	require.NoError(t, svc.Delete(ctx, activity.ID, "author-1"))
	assert.ErrorIs(t, svc.Delete(ctx, activity.ID, "author-1"), repository.ErrNotFound)
}

func TestActivityService_List(t *testing.T) {
	store := newFakeActivityStore()
	store.total = 45
	svc := NewActivityService(store, newFakeContentCache(), zerolog.Nop())

	activities, page, err := svc.List(context.Background(), "author-1", 3, 500)
	require.NoError(t, err)
	assert.NotNil(t, activities)
	assert.Equal(t, 100, store.lastLimit)
	assert.Equal(t, 200, store.lastOffset)
	assert.Equal(t, 1, page.TotalPages)

	_, page, err = svc.List(context.Background(), "author-1", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.PerPage)
	assert.Equal(t, 5, page.TotalPages)
}
