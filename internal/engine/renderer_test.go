package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stemsi/mcq-engine/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rendererParams = model.EngineParams{
	EngineType:            "MCQ",
	QuestionMediaBasePath: "/media/",
	ActivityRef:           "obj-1",
}

func mountRenderer(t *testing.T, adaptor *fakeRendererAdaptor, opts ...Option) *Renderer {
	t.Helper()
	r := NewRenderer(opts...)
	require.NoError(t, r.Init(rendererParams, adaptor, model.LayoutMCQ, loadDocument(t, capitalsDocument)))
	require.True(t, r.Mounted())
	return r
}

func TestRenderer_InitProcessesContent(t *testing.T) {
	adaptor := &fakeRendererAdaptor{displaySubmit: true}
	doc := loadDocument(t, capitalsDocument)

	r := NewRenderer()
	require.NoError(t, r.Init(rendererParams, adaptor, model.LayoutMCQ, doc))

	v := r.View()
	assert.True(t, v.Mounted)
	assert.True(t, v.DisplaySubmit)
	assert.Equal(t, "Choose one", v.Directions)
	assert.Equal(t, "/media/paris.png", v.MediaContent)
	assert.Equal(t, "i1", v.InteractionID)
	assert.Equal(t, "Capital of France? ", v.QuestionText)
	assert.Equal(t, []OptionView{
		{Key: "choiceA", Value: "Rome"},
		{Key: "choiceB", Value: "Paris"},
		{Key: "choiceC", Value: "Berlin"},
	}, v.Options)

	// The caller's document is untouched.
	assert.Contains(t, doc.Content.Canvas.Data.QuestionData[0].Text, marker)
	assert.Nil(t, doc.Content.DisplaySubmit)
}

func TestRenderer_InitWithoutContentIsNoop(t *testing.T) {
	r := NewRenderer()
	require.NoError(t, r.Init(rendererParams, &fakeRendererAdaptor{}, model.LayoutMCQ, &model.Document{}))
	assert.False(t, r.Mounted())

	_, err := r.Select(context.Background(), "choiceA")
	assert.ErrorIs(t, err, ErrNotMounted)
}

func TestRenderer_InitRejectsUnknownLayout(t *testing.T) {
	r := NewRenderer()
	err := r.Init(rendererParams, &fakeRendererAdaptor{}, "FIB", loadDocument(t, capitalsDocument))
	assert.ErrorIs(t, err, ErrUnknownLayout)

	err = r.Init(rendererParams, nil, model.LayoutMCQ, loadDocument(t, capitalsDocument))
	assert.ErrorIs(t, err, ErrAdaptorRequired)
}

func TestRenderer_MissingMarkerYieldsEmptyQuestion(t *testing.T) {
	doc := loadDocument(t, `{"content":{"instructions":[{"tag":"text","text":"d"}],"canvas":{"layout":"MCQ","data":{"questiondata":[{"text":"no marker"}]}},"interactions":{}}}`)
	adaptor := &fakeRendererAdaptor{}

	r := NewRenderer()
	require.NoError(t, r.Init(rendererParams, adaptor, model.LayoutMCQ, doc))
	assert.True(t, r.Mounted())
	assert.Empty(t, r.View().Options)
	assert.Empty(t, r.AnswerReport(false).Response.Results)

	outcome, err := r.Save(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)
	assert.Zero(t, adaptor.submitCalls)
}

func TestRenderer_UsesFirstMarkerOfFirstBlock(t *testing.T) {
	doc := loadDocument(t, `{"content":{"canvas":{"layout":"MCQ","data":{"questiondata":[
		{"text":"Pick <a href=\"http://www.comprodls.com/m1.0/interaction/mcq\">i1</a> then <a href=\"http://www.comprodls.com/m1.0/interaction/mcq\">i2</a>"}]}},
		"interactions":{"i1":{"type":"MCQ","MCQ":[{"a":"one"}]},"i2":{"type":"MCQ","MCQ":[{"b":"two"},{"c":"three"}]}}},
		"responses":{"i1":{"correct":"a"},"i2":{"correct":"b"}}}`)

	r := NewRenderer()
	require.NoError(t, r.Init(rendererParams, &fakeRendererAdaptor{}, model.LayoutMCQ, doc))
	v := r.View()
	assert.Equal(t, "i1", v.InteractionID)
	require.Len(t, v.Options, 1)
	assert.Equal(t, "a", v.Options[0].Key)
}

func TestRenderer_Config(t *testing.T) {
	r := NewRenderer()
	assert.Equal(t, model.EngineConfig{ResizeMode: "auto", ResizeHeight: "580", MaxRetries: 10}, r.Config())
}

func TestRenderer_SelectIsExclusiveAndPartiallySaves(t *testing.T) {
	adaptor := &fakeRendererAdaptor{}
	r := mountRenderer(t, adaptor)
	ctx := context.Background()

	assert.False(t, r.Status())

	outcome, err := r.Select(ctx, "choiceA")
	require.NoError(t, err)
	assert.Equal(t, OutcomePartiallySaved, outcome)

	outcome, err = r.Select(ctx, "choiceB")
	require.NoError(t, err)
	assert.Equal(t, OutcomePartiallySaved, outcome)

	selected := 0
	for _, opt := range r.View().Options {
		if opt.Selected {
			selected++
			assert.Equal(t, "choiceB", opt.Key)
		}
	}
	assert.Equal(t, 1, selected)
	assert.Equal(t, 2, adaptor.partialCalls)
	assert.Equal(t, "obj-1", adaptor.lastRef)
	assert.Equal(t, "Paris", adaptor.lastReport.Response.Results[0].Answer)
	assert.True(t, r.Status())

	_, err = r.Select(ctx, "nope")
	assert.ErrorIs(t, err, ErrUnknownOption)
}

func TestRenderer_PartialSaveFailureIsDropped(t *testing.T) {
	adaptor := &fakeRendererAdaptor{partialStatus: StatusError}
	r := mountRenderer(t, adaptor)

	outcome, err := r.Select(context.Background(), "choiceA")
	require.NoError(t, err)
	assert.Equal(t, OutcomeDropped, outcome)
	assert.Equal(t, 1, adaptor.partialCalls)
	assert.False(t, r.Status())
}

func TestRenderer_AnswerReport(t *testing.T) {
	tests := []struct {
		name      string
		selectKey string
		skip      bool
		answer    string
		score     int
	}{
		{name: "correct answer", selectKey: "choiceB", answer: "Paris", score: 1},
		{name: "wrong answer", selectKey: "choiceA", answer: "Rome", score: 0},
		{name: "skipped", selectKey: "choiceB", skip: true, answer: "Not Answered", score: 0},
		{name: "nothing selected", answer: "", score: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mountRenderer(t, &fakeRendererAdaptor{})
			if tt.selectKey != "" {
				_, err := r.Select(context.Background(), tt.selectKey)
				require.NoError(t, err)
			}

			env := r.AnswerReport(tt.skip)
			assert.Equal(t, "Choose one", env.Response.Directions)
			require.Len(t, env.Response.Results, 1)
			assert.Equal(t, model.ResultItem{
				ItemUID:        "i1",
				Question:       "1.  Capital of France?  ^^ Rome,Paris,Berlin ^^ i1",
				CorrectAnswer:  "Paris",
				Score:          tt.score,
				Comment:        "",
				EndCurrentTest: false,
				Answer:         tt.answer,
				Possible:       1,
			}, env.Response.Results[0])
		})
	}
}

func TestRenderer_SubmitSuccessClosesActivity(t *testing.T) {
	adaptor := &fakeRendererAdaptor{}
	r := mountRenderer(t, adaptor)
	ctx := context.Background()

	_, err := r.Select(ctx, "choiceB")
	require.NoError(t, err)

	outcome, err := r.HandleSubmit(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSubmitted, outcome)
	assert.Equal(t, 1, adaptor.submitCalls)
	assert.Equal(t, 1, adaptor.closeCalls)
	assert.True(t, r.Status())
	assert.Empty(t, r.Marks())

	_, err = r.Select(ctx, "choiceA")
	assert.ErrorIs(t, err, ErrSelectionFrozen)
}

func TestRenderer_SubmitRetriesThenSucceeds(t *testing.T) {
	adaptor := &fakeRendererAdaptor{submitStatuses: []Status{StatusError, StatusError, StatusError, StatusNoError}}
	r := mountRenderer(t, adaptor)

	outcome, err := r.Save(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSubmitted, outcome)
	assert.Equal(t, 4, adaptor.submitCalls)
	assert.Equal(t, 1, adaptor.closeCalls)
	assert.Zero(t, r.retry.tries)
}

func TestRenderer_SubmitAbandonsAfterMaxRetries(t *testing.T) {
	adaptor := &fakeRendererAdaptor{submitStatuses: []Status{StatusError}}
	r := mountRenderer(t, adaptor)

	outcome, err := r.Save(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAbandoned, outcome)
	assert.Equal(t, 11, adaptor.submitCalls)
	assert.Zero(t, adaptor.closeCalls)
	assert.False(t, r.Status())

	// The budget is spent and only a success clears it.
	outcome, err = r.Save(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAbandoned, outcome)
	assert.Equal(t, 12, adaptor.submitCalls)
}

func TestRenderer_SubmitTransportErrorCountsAsFailure(t *testing.T) {
	adaptor := &fakeRendererAdaptor{submitErr: errors.New("connection refused")}
	r := mountRenderer(t, adaptor, WithMaxRetries(2))

	outcome, err := r.Save(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAbandoned, outcome)
	assert.Equal(t, 3, adaptor.submitCalls)
}

func TestRenderer_SubmitStopsOnCancelledContext(t *testing.T) {
	adaptor := &fakeRendererAdaptor{submitStatuses: []Status{StatusError}}
	r := mountRenderer(t, adaptor)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := r.Save(ctx, true)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, OutcomeAbandoned, outcome)
	assert.Equal(t, 1, adaptor.submitCalls)
}

func TestRenderer_HandleSubmitMarksAnswersWhenAllowed(t *testing.T) {
	adaptor := &fakeRendererAdaptor{showAnswers: true}
	r := mountRenderer(t, adaptor)

	_, err := r.Select(context.Background(), "choiceA")
	require.NoError(t, err)
	_, err = r.HandleSubmit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []Mark{
		{Index: 0, Key: "choiceA", Correct: false},
		{Index: 1, Key: "choiceB", Correct: true},
		{Index: 2, Key: "choiceC", Correct: false},
	}, r.Marks())

	v := r.View()
	require.NotNil(t, v.Options[1].Correct)
	assert.True(t, *v.Options[1].Correct)
	assert.True(t, v.Frozen)
}

func TestRenderer_HandleSubmitFreezesEvenWhenAbandoned(t *testing.T) {
	adaptor := &fakeRendererAdaptor{submitStatuses: []Status{StatusError}}
	r := mountRenderer(t, adaptor, WithMaxRetries(0))

	outcome, err := r.HandleSubmit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeAbandoned, outcome)
	assert.True(t, r.View().Frozen)
}

func TestRenderer_ShowGradesRestoresSelection(t *testing.T) {
	r := mountRenderer(t, &fakeRendererAdaptor{})

	saved := model.AnswerReport{Results: []model.ResultItem{{Answer: "  Rome "}}}
	require.NoError(t, r.ShowGrades(saved, true))

	v := r.View()
	assert.True(t, v.Options[0].Selected)
	assert.False(t, v.Options[1].Selected)
	assert.True(t, v.Frozen)
	assert.True(t, v.ReviewAttempt)
	assert.Len(t, r.Marks(), 3)

	env := r.AnswerReport(false)
	assert.Equal(t, "Rome", env.Response.Results[0].Answer)
	assert.Equal(t, 0, env.Response.Results[0].Score)
}

func TestRenderer_Freeze(t *testing.T) {
	hidden := mountRenderer(t, &fakeRendererAdaptor{})
	require.NoError(t, hidden.Freeze())
	assert.True(t, hidden.View().Frozen)
	assert.Empty(t, hidden.Marks())
	_, err := hidden.Select(context.Background(), "choiceA")
	assert.ErrorIs(t, err, ErrSelectionFrozen)

	shown := mountRenderer(t, &fakeRendererAdaptor{showAnswers: true})
	require.NoError(t, shown.Freeze())
	assert.Len(t, shown.Marks(), 3)

	assert.ErrorIs(t, NewRenderer().Freeze(), ErrNotMounted)
}

func TestRenderer_UpdateLastSavedResultsWithUnknownAnswer(t *testing.T) {
	r := mountRenderer(t, &fakeRendererAdaptor{})

	require.NoError(t, r.UpdateLastSavedResults(model.AnswerReport{Results: []model.ResultItem{{Answer: "Madrid"}}}))
	for _, opt := range r.View().Options {
		assert.False(t, opt.Selected)
	}
}

func TestRenderer_OptionTextIsEscapedInQuestionString(t *testing.T) {
	doc := `{"content":{"instructions":[{"tag":"text","text":"d"}],"canvas":{"layout":"MCQ_IMG","data":{"questiondata":[{"text":"Q ` +
		`<a href=\"http://www.comprodls.com/m1.0/interaction/mcq\">q9</a>"}]}},` +
		`"interactions":{"q9":{"type":"MCQ","MCQ":[{"a":"Salt & pepper"},{"b":"<i>x</i>"}]}}},"responses":{"q9":{"correct":"a"}}}`

	r := NewRenderer()
	require.NoError(t, r.Init(rendererParams, &fakeRendererAdaptor{}, model.LayoutMCQ, loadDocument(t, doc)))

	env := r.AnswerReport(false)
	assert.Equal(t, "1.  Q  ^^ Salt &amp; pepper,<i>x</i> ^^ q9", env.Response.Results[0].Question)
	assert.Equal(t, "Salt & pepper", env.Response.Results[0].CorrectAnswer)
	assert.True(t, r.View().ImageLayout)
}
