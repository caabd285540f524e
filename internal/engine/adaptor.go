package engine

import (
	"context"

	"github.com/stemsi/mcq-engine/internal/model"
)

// Status is the outcome code a shell reports for a save.
type Status string

const (
	StatusNoError Status = "NO_ERROR"
	StatusError   Status = "ERROR"
)

// RendererAdaptor is the shell surface the renderer talks to.
type RendererAdaptor interface {
	SubmitResults(ctx context.Context, result model.ResultEnvelope, activityRef string) (Status, error)
	SavePartialResults(ctx context.Context, result model.ResultEnvelope, activityRef string) (Status, error)
	CloseActivity(ctx context.Context) error
	DisplaySubmit() bool
	ShowAnswers() bool
}

// EditorAdaptor is the shell surface the editor talks to.
type EditorAdaptor interface {
	ItemChangedInEditor(ctx context.Context, doc *model.Document) error
	SubmitEditChanges(ctx context.Context, doc *model.Document) error
}
