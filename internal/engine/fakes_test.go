package engine

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stemsi/mcq-engine/internal/model"
	"github.com/stretchr/testify/require"
)

type fakeRendererAdaptor struct {
	displaySubmit bool
	showAnswers   bool

	// submitStatuses is consumed one per SubmitResults call; when exhausted the last entry repeats.
	submitStatuses []Status
	partialStatus  Status
	submitErr      error

	submitCalls  int
	partialCalls int
	closeCalls   int
	lastReport   model.ResultEnvelope
	lastRef      string
}

func (f *fakeRendererAdaptor) SubmitResults(_ context.Context, result model.ResultEnvelope, ref string) (Status, error) {
	f.submitCalls++
	f.lastReport, f.lastRef = result, ref
	if f.submitErr != nil {
		return StatusError, f.submitErr
	}
	if len(f.submitStatuses) == 0 {
		return StatusNoError, nil
	}
	i := f.submitCalls - 1
	if i >= len(f.submitStatuses) {
		i = len(f.submitStatuses) - 1
	}
	return f.submitStatuses[i], nil
}

func (f *fakeRendererAdaptor) SavePartialResults(_ context.Context, result model.ResultEnvelope, ref string) (Status, error) {
	f.partialCalls++
	f.lastReport, f.lastRef = result, ref
	if f.partialStatus == "" {
		return StatusNoError, nil
	}
	return f.partialStatus, nil
}

func (f *fakeRendererAdaptor) CloseActivity(context.Context) error {
	f.closeCalls++
	return nil
}

func (f *fakeRendererAdaptor) DisplaySubmit() bool { return f.displaySubmit }
func (f *fakeRendererAdaptor) ShowAnswers() bool   { return f.showAnswers }

type fakeEditorAdaptor struct {
	changed   []*model.Document
	submitted []*model.Document
	submitErr error
}

func (f *fakeEditorAdaptor) ItemChangedInEditor(_ context.Context, doc *model.Document) error {
	f.changed = append(f.changed, doc)
	return nil
}

func (f *fakeEditorAdaptor) SubmitEditChanges(_ context.Context, doc *model.Document) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submitted = append(f.submitted, doc)
	return nil
}

const marker = `<a href="http://www.comprodls.com/m1.0/interaction/mcq">i1</a>`

const capitalsDocument = `{
  "content": {
    "instructions": [{"tag": "text", "text": "Choose one"}],
    "canvas": {"layout": "MCQ", "data": {"questiondata": [{"text": "Capital of France? ` + `<a href=\"http://www.comprodls.com/m1.0/interaction/mcq\">i1</a>` + `"}]}},
    "stimulus": [{"tag": "image", "image": "paris.png"}],
    "interactions": {
      "i1": {"type": "MCQ", "MCQ": [{"choiceA": " Rome "}, {"choiceB": "Paris"}, {"choiceC": "Berlin"}]}
    }
  },
  "responses": {"i1": {"correct": "choiceB"}}
}`

func loadDocument(t *testing.T, raw string) *model.Document {
	t.Helper()
	var doc model.Document
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return &doc
}
