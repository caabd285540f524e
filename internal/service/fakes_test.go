package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stemsi/mcq-engine/internal/engine"
	"github.com/stemsi/mcq-engine/internal/model"
	"github.com/stemsi/mcq-engine/internal/repository"
	"github.com/stemsi/mcq-engine/internal/shell"
	"github.com/stretchr/testify/require"
)

const capitalsContent = `{
  "content": {
    "instructions": [{"tag": "text", "text": "Choose one"}],
    "canvas": {"layout": "MCQ", "data": {"questiondata": [{"text": "Capital of France? <a href=\"http://www.comprodls.com/m1.0/interaction/mcq\">i1</a>"}]}},
    "interactions": {
      "i1": {"type": "MCQ", "MCQ": [{"choiceA": "Rome"}, {"choiceB": "Paris"}, {"choiceC": "Berlin"}]}
    }
  },
  "responses": {"i1": {"correct": "choiceB"}}
}`

func decodeCapitals(t *testing.T) *model.Document {
	t.Helper()
	var doc model.Document
	require.NoError(t, json.Unmarshal([]byte(capitalsContent), &doc))
	return &doc
}

// ─── Activity store / cache ────────────────────────────────────────

type fakeActivityStore struct {
	activities map[uuid.UUID]*model.Activity
	gets       int
	lastLimit  int
	lastOffset int
	total      int
}

func newFakeActivityStore(activities ...*model.Activity) *fakeActivityStore {
	f := &fakeActivityStore{activities: make(map[uuid.UUID]*model.Activity)}
	for _, a := range activities {
		f.activities[a.ID] = a
	}
	return f
}

func (f *fakeActivityStore) GetByID(_ context.Context, id uuid.UUID) (*model.Activity, error) {
	f.gets++
	a, ok := f.activities[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeActivityStore) ListPaginated(_ context.Context, _ string, limit, offset int) ([]model.Activity, int, error) {
	f.lastLimit, f.lastOffset = limit, offset
	return nil, f.total, nil
}

func (f *fakeActivityStore) Create(_ context.Context, a *model.Activity) error {
	a.ID = uuid.New()
	a.Version = 1
	f.activities[a.ID] = a
	return nil
}

func (f *fakeActivityStore) Update(_ context.Context, id uuid.UUID, title string, content json.RawMessage) (*model.Activity, error) {
	a, ok := f.activities[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if title != "" {
		a.Title = title
	}
	if len(content) > 0 {
		a.Content = content
		a.Version++
	}
	return a, nil
}

func (f *fakeActivityStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.activities[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.activities, id)
	return nil
}

type fakeContentCache struct {
	entries     map[uuid.UUID][]byte
	invalidated []uuid.UUID
}

func newFakeContentCache() *fakeContentCache {
	return &fakeContentCache{entries: make(map[uuid.UUID][]byte)}
}

func (f *fakeContentCache) Get(_ context.Context, id uuid.UUID) ([]byte, error) {
	raw, ok := f.entries[id]
	if !ok {
		return nil, ErrCacheMiss
	}
	return raw, nil
}

func (f *fakeContentCache) Set(_ context.Context, id uuid.UUID, raw []byte) error {
	f.entries[id] = raw
	return nil
}

func (f *fakeContentCache) Invalidate(_ context.Context, id uuid.UUID) error {
	delete(f.entries, id)
	f.invalidated = append(f.invalidated, id)
	return nil
}

// ─── Session dependencies ──────────────────────────────────────────

type fakeDocs struct {
	docs map[uuid.UUID]*model.Document
}

func (f *fakeDocs) LoadDocument(_ context.Context, id uuid.UUID) (*model.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return doc, nil
}

type fakeReports struct {
	mu      sync.Mutex
	reports map[string]*model.SavedReport
}

func newFakeReports() *fakeReports {
	return &fakeReports{reports: make(map[string]*model.SavedReport)}
}

// put stores a report unless it is partial and a final one is already kept.
func (f *fakeReports) put(activityID uuid.UUID, userID string, report *model.AnswerReport, final bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := activityID.String() + "/" + userID
	if !f.reports[key].Accepts(final) {
		return
	}
	f.reports[key] = &model.SavedReport{Final: final, Report: *report}
}

func (f *fakeReports) LastReport(_ context.Context, activityID uuid.UUID, userID string) (*model.SavedReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[activityID.String()+"/"+userID]
	if !ok {
		return nil, ErrNoSavedResult
	}
	return r, nil
}

// fakeAdaptors records saves into fakeReports so a later ShowGrades sees them.
type fakeAdaptors struct {
	reports  *fakeReports
	bindings []shell.Binding
	changed  int
	saved    int
}

func (f *fakeAdaptors) RendererAdaptor(b shell.Binding) engine.RendererAdaptor {
	f.bindings = append(f.bindings, b)
	return &recordingRenderer{parent: f, binding: b}
}

func (f *fakeAdaptors) EditorAdaptor(b shell.Binding) engine.EditorAdaptor {
	f.bindings = append(f.bindings, b)
	return &recordingEditor{parent: f}
}

type recordingRenderer struct {
	parent  *fakeAdaptors
	binding shell.Binding
}

func (r *recordingRenderer) SubmitResults(_ context.Context, result model.ResultEnvelope, _ string) (engine.Status, error) {
	r.record(result, true)
	return engine.StatusNoError, nil
}

func (r *recordingRenderer) SavePartialResults(_ context.Context, result model.ResultEnvelope, _ string) (engine.Status, error) {
	r.record(result, false)
	return engine.StatusNoError, nil
}

func (r *recordingRenderer) record(result model.ResultEnvelope, final bool) {
	report := result.Response
	r.parent.reports.put(uuid.MustParse(r.binding.ActivityID), r.binding.UserID, &report, final)
}

func (r *recordingRenderer) CloseActivity(context.Context) error { return nil }
func (r *recordingRenderer) DisplaySubmit() bool                 { return r.binding.DisplaySubmit }
func (r *recordingRenderer) ShowAnswers() bool                   { return r.binding.ShowAnswers }

type recordingEditor struct {
	parent *fakeAdaptors
}

func (e *recordingEditor) ItemChangedInEditor(context.Context, *model.Document) error {
	e.parent.changed++
	return nil
}

func (e *recordingEditor) SubmitEditChanges(context.Context, *model.Document) error {
	e.parent.saved++
	return nil
}

// ─── Results ───────────────────────────────────────────────────────

type fakeResultLister struct {
	results []model.ActivityResult
}

func (f *fakeResultLister) ListByActivity(context.Context, uuid.UUID) ([]model.ActivityResult, error) {
	return f.results, nil
}
