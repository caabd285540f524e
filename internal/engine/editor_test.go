package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stemsi/mcq-engine/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoBlockDocument = `{
  "content": {
    "instructions": [{"tag": "text", "text": "Edit me"}],
    "canvas": {"layout": "MCQ", "data": {"questiondata": [
      {"text": "First? <a href=\"http://www.comprodls.com/m1.0/interaction/mcq\">i1</a>"},
      {"text": "Second <a href=\"http://www.comprodls.com/m1.0/interaction/mcq\">i2</a> tail"}
    ]}},
    "interactions": {
      "i1": {"type": "MCQ", "MCQ": [{"choiceA": "one"}, {"choiceB": "two"}, {"choiceC": "three"}]},
      "i2": {"type": "MCQ", "MCQ": [{"x": "yes"}, {"y": "no"}]}
    }
  },
  "responses": {"i1": {"correct": "choiceB"}, "i2": {"correct": "x"}}
}`

func mountEditor(t *testing.T, adaptor *fakeEditorAdaptor) *Editor {
	t.Helper()
	e := NewEditor()
	require.NoError(t, e.Init(model.EngineParams{}, adaptor, model.LayoutMCQEditor, loadDocument(t, twoBlockDocument)))
	require.True(t, e.Mounted())
	return e
}

func optionKeys(records []model.OptionRecord) []string {
	keys := make([]string, 0, len(records))
	for _, r := range records {
		keys = append(keys, r.Key)
	}
	return keys
}

func assertIndicesDense(t *testing.T, records []model.OptionRecord) {
	t.Helper()
	for i, r := range records {
		assert.Equal(t, i, r.Index)
	}
}

func TestEditor_InitNormalizesEveryBlockAndInteraction(t *testing.T) {
	e := mountEditor(t, &fakeEditorAdaptor{})
	v := e.View()

	assert.Equal(t, []string{"i1", "i2"}, v.InteractionIDs)
	require.Len(t, v.Questions, 2)
	assert.Equal(t, "First? ", v.Questions[0].Text)
	assert.Equal(t, "Second  tail", v.Questions[1].Text)

	require.Len(t, v.Interactions, 2)
	assert.Equal(t, "i1", v.Interactions[0].Key)
	assert.Equal(t, []model.OptionRecord{
		{Key: "choiceA", Value: "one", Index: 0},
		{Key: "choiceB", Value: "two", Index: 1, IsCorrect: model.MarkCorrect("two")},
		{Key: "choiceC", Value: "three", Index: 2},
	}, v.Interactions[0].Options)
	assert.False(t, e.Status())
}

func TestEditor_InitRejectsRendererLayout(t *testing.T) {
	err := NewEditor().Init(model.EngineParams{}, &fakeEditorAdaptor{}, model.LayoutMCQ, loadDocument(t, twoBlockDocument))
	assert.ErrorIs(t, err, ErrUnknownLayout)
}

func TestEditor_TransformWithoutEditsAppendsMarkers(t *testing.T) {
	e := mountEditor(t, &fakeEditorAdaptor{})

	out, err := e.Transform()
	require.NoError(t, err)

	in, ok := out.Content.Interactions.Get("i1")
	require.True(t, ok)
	assert.Equal(t, []model.OptionEntry{{Key: "choiceA", Text: "one"}, {Key: "choiceB", Text: "two"}, {Key: "choiceC", Text: "three"}}, in.Options)
	assert.Equal(t, []string{"i1", "i2"}, out.Content.Interactions.IDs())

	blocks := out.Content.Canvas.Data.QuestionData
	assert.Equal(t, "First? "+marker, blocks[0].Text)
	// Markers are re-appended at the end rather than at their original position.
	assert.Equal(t, `Second  tail<a href="http://www.comprodls.com/m1.0/interaction/mcq">i2</a>`, blocks[1].Text)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"key"`)
	assert.NotContains(t, string(raw), "isEdited")
}

func TestEditor_AddOption(t *testing.T) {
	adaptor := &fakeEditorAdaptor{}
	e := mountEditor(t, adaptor)

	rec, err := e.AddOption(context.Background(), 1)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.Key)
	assert.Equal(t, "", rec.Value)
	assert.True(t, rec.IsEdited)
	assert.Equal(t, 2, rec.Index)

	assert.True(t, e.Status())
	require.Len(t, adaptor.changed, 1)
	in, _ := adaptor.changed[0].Content.Interactions.Get("i2")
	assert.Len(t, in.Options, 3)
	assert.Equal(t, rec.Key, in.Options[2].Key)

	second, err := e.AddOption(context.Background(), 1)
	require.NoError(t, err)
	assert.NotEqual(t, rec.Key, second.Key)
}

func TestEditor_RemoveOptionReindexes(t *testing.T) {
	adaptor := &fakeEditorAdaptor{}
	e := mountEditor(t, adaptor)

	require.NoError(t, e.RemoveOption(context.Background(), 0, 0))

	opts := e.View().Interactions[0].Options
	assert.Equal(t, []string{"choiceB", "choiceC"}, optionKeys(opts))
	assertIndicesDense(t, opts)
	assert.Len(t, adaptor.changed, 1)

	assert.ErrorIs(t, e.RemoveOption(context.Background(), 0, 5), ErrOutOfRange)
	assert.ErrorIs(t, e.RemoveOption(context.Background(), 9, 0), ErrUnknownInteraction)
}

func TestEditor_MoveOption(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     []string
	}{
		{name: "first to last", from: 0, to: 2, want: []string{"choiceB", "choiceC", "choiceA"}},
		{name: "last to first", from: 2, to: 0, want: []string{"choiceC", "choiceA", "choiceB"}},
		{name: "middle to first", from: 1, to: 0, want: []string{"choiceB", "choiceA", "choiceC"}},
		{name: "in place", from: 1, to: 1, want: []string{"choiceA", "choiceB", "choiceC"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adaptor := &fakeEditorAdaptor{}
			e := mountEditor(t, adaptor)

			require.NoError(t, e.MoveOption(context.Background(), 0, tt.from, tt.to))

			opts := e.View().Interactions[0].Options
			assert.Equal(t, tt.want, optionKeys(opts))
			assertIndicesDense(t, opts)

			require.Len(t, adaptor.changed, 1)
			in, _ := adaptor.changed[0].Content.Interactions.Get("i1")
			got := make([]string, 0, len(in.Options))
			for _, o := range in.Options {
				got = append(got, o.Key)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEditor_MoveOptionOutOfRange(t *testing.T) {
	e := mountEditor(t, &fakeEditorAdaptor{})
	assert.ErrorIs(t, e.MoveOption(context.Background(), 0, 0, 3), ErrOutOfRange)
	assert.ErrorIs(t, e.MoveOption(context.Background(), 0, -1, 0), ErrOutOfRange)
}

func TestEditor_SetCorrect(t *testing.T) {
	adaptor := &fakeEditorAdaptor{}
	e := mountEditor(t, adaptor)

	require.NoError(t, e.SetCorrect(context.Background(), 0, "choiceC"))

	opts := e.View().Interactions[0].Options
	assert.Equal(t, model.CorrectMark{}, opts[0].IsCorrect)
	assert.Equal(t, model.CorrectMark{}, opts[1].IsCorrect)
	assert.Equal(t, model.MarkCorrect("three"), opts[2].IsCorrect)

	require.Len(t, adaptor.changed, 1)
	assert.Equal(t, "choiceC", adaptor.changed[0].CorrectKey("i1"))
	assert.Equal(t, "x", adaptor.changed[0].CorrectKey("i2"))

	assert.ErrorIs(t, e.SetCorrect(context.Background(), 0, "missing"), ErrUnknownOption)
}

func TestEditor_OptionEditingLifecycle(t *testing.T) {
	adaptor := &fakeEditorAdaptor{}
	e := mountEditor(t, adaptor)

	editing, err := e.ToggleEditing(0, 1)
	require.NoError(t, err)
	assert.True(t, editing)
	require.NoError(t, e.EditOptionText(0, 1, "TWO"))
	assert.Empty(t, adaptor.changed)
	assert.False(t, e.Status())

	require.NoError(t, e.EndEditing(context.Background(), 0, 1))
	opt := e.View().Interactions[0].Options[1]
	assert.False(t, opt.IsEdited)
	assert.Equal(t, "TWO", opt.Value)
	assert.Equal(t, model.MarkCorrect("TWO"), opt.IsCorrect)
	assert.True(t, e.Status())

	require.Len(t, adaptor.changed, 1)
	in, _ := adaptor.changed[0].Content.Interactions.Get("i1")
	assert.Equal(t, "TWO", in.Options[1].Text)
}

func TestEditor_QuestionEditingLifecycle(t *testing.T) {
	adaptor := &fakeEditorAdaptor{}
	e := mountEditor(t, adaptor)

	editing, err := e.ToggleQuestionEditing(1)
	require.NoError(t, err)
	assert.True(t, editing)
	assert.True(t, e.View().Questions[1].IsEditing)
	assert.False(t, e.View().Questions[0].IsEditing)

	require.NoError(t, e.EditQuestionText(1, "Rewritten "))
	require.NoError(t, e.EndQuestionEditing(context.Background(), 1))
	assert.False(t, e.View().Questions[1].IsEditing)

	require.Len(t, adaptor.changed, 1)
	assert.Equal(t, `Rewritten <a href="http://www.comprodls.com/m1.0/interaction/mcq">i2</a>`,
		adaptor.changed[0].Content.Canvas.Data.QuestionData[1].Text)

	_, err = e.ToggleQuestionEditing(2)
	assert.ErrorIs(t, err, ErrUnknownQuestion)
}

func TestEditor_SaveItemInEditor(t *testing.T) {
	adaptor := &fakeEditorAdaptor{}
	e := mountEditor(t, adaptor)

	_, err := e.AddOption(context.Background(), 0)
	require.NoError(t, err)
	require.NoError(t, e.SaveItemInEditor(context.Background()))

	require.Len(t, adaptor.submitted, 1)
	in, _ := adaptor.submitted[0].Content.Interactions.Get("i1")
	assert.Len(t, in.Options, 4)
	assert.False(t, e.Status())
}

func TestEditor_SaveItemInEditorFailureKeepsUnsavedFlag(t *testing.T) {
	adaptor := &fakeEditorAdaptor{submitErr: errors.New("queue down")}
	e := mountEditor(t, adaptor)

	_, err := e.AddOption(context.Background(), 0)
	require.NoError(t, err)
	assert.Error(t, e.SaveItemInEditor(context.Background()))
	assert.True(t, e.Status())
}

func TestEditor_UnmountedOperations(t *testing.T) {
	e := NewEditor()
	require.NoError(t, e.Init(model.EngineParams{}, &fakeEditorAdaptor{}, model.LayoutMCQEditor, &model.Document{}))
	assert.False(t, e.Mounted())

	_, err := e.AddOption(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNotMounted)
	_, err = e.Transform()
	assert.ErrorIs(t, err, ErrNotMounted)
	assert.ErrorIs(t, e.SaveItemInEditor(context.Background()), ErrNotMounted)
	assert.Equal(t, model.EngineConfig{ResizeMode: "auto", ResizeHeight: "580"}, e.Config())
}
