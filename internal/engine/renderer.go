package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/mcq-engine/internal/model"
)

// Renderer displays one MCQ question, tracks the learner's selection and reports
// results through a RendererAdaptor. A Renderer is not safe for concurrent use.
type Renderer struct {
	log       zerolog.Logger
	reference string
	retry     *retrier

	adaptor RendererAdaptor
	params  model.EngineParams
	content *model.Content
	mounted bool

	layoutType    string
	directions    string
	interactionID string
	questionText  string
	options       []model.OptionRecord
	escaped       []string
	correctAnswer string

	selected  int
	answer    string
	hasAnswer bool
	marks     []Mark

	submitted          bool
	partiallySubmitted bool
	frozen             bool
	reviewAttempt      bool
}

// Mark tells whether an option is the correct one once answers are revealed.
type Mark struct {
	Index   int    `json:"index"`
	Key     string `json:"key"`
	Correct bool   `json:"correct"`
}

// RendererView is the renderable state of a mounted renderer.
type RendererView struct {
	Mounted            bool           `json:"mounted"`
	ActivityType       string         `json:"activity_type,omitempty"`
	ImageLayout        bool           `json:"image_layout"`
	Directions         string         `json:"directions"`
	MediaContent       string         `json:"media_content,omitempty"`
	DisplaySubmit      bool           `json:"display_submit"`
	InteractionID      string         `json:"interaction_id,omitempty"`
	QuestionText       string         `json:"question_text"`
	Options            []OptionView   `json:"options"`
	Submitted          bool           `json:"submitted"`
	PartiallySubmitted bool           `json:"partially_submitted"`
	Frozen             bool           `json:"frozen"`
	ReviewAttempt      bool           `json:"review_attempt,omitempty"`
	Content            *model.Content `json:"content,omitempty"`
}

// OptionView is one option as presented to the learner.
type OptionView struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
	Correct  *bool  `json:"correct,omitempty"`
}

// NewRenderer creates an unmounted renderer.
func NewRenderer(opts ...Option) *Renderer {
	s := applyOptions(opts)
	return &Renderer{
		log:       s.log,
		reference: s.reference,
		retry:     newRetrier(s.maxRetries),
		selected:  -1,
	}
}

// Init mounts the renderer on a deep copy of doc. A document without content leaves the
// renderer unmounted and is not an error.
func (r *Renderer) Init(params model.EngineParams, adaptor RendererAdaptor, layout string, doc *model.Document) error {
	if adaptor == nil {
		return ErrAdaptorRequired
	}
	if layout != model.LayoutMCQ {
		return fmt.Errorf("%w: %q", ErrUnknownLayout, layout)
	}

	r.adaptor = adaptor
	r.params = params

	if doc == nil || doc.Content == nil {
		r.log.Debug().Msg("Document has no content, renderer left unmounted")
		return nil
	}

	clone, err := doc.Clone()
	if err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}
	if err := r.parse(clone); err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}

	r.mounted = true
	return nil
}

func (r *Renderer) parse(doc *model.Document) error {
	c := doc.Content
	r.content = c

	displaySubmit := r.adaptor.DisplaySubmit()
	c.DisplaySubmit = &displaySubmit
	r.layoutType = c.Canvas.Layout

	if len(c.Instructions) > 0 {
		r.directions = c.Instructions[0].Value
	}
	c.Directions = r.directions

	for _, s := range c.Stimulus {
		if s.Tag == "image" {
			c.MediaContent = r.params.QuestionMediaBasePath + s.Value
		}
	}

	if len(c.Canvas.Data.QuestionData) == 0 {
		return nil
	}
	block := &c.Canvas.Data.QuestionData[0]

	ex, err := ExtractMarkers(block.Text, r.reference)
	if err != nil {
		return err
	}
	if len(ex.Markers) == 0 {
		r.log.Debug().Msg("Question has no interaction marker")
		return nil
	}

	marker := ex.Markers[0]
	block.Text = strings.Replace(block.Text, marker.Markup, "", 1)

	r.interactionID = marker.InteractionID
	r.questionText = "1.  " + block.Text

	in, ok := c.Interactions.Get(r.interactionID)
	if !ok {
		r.log.Warn().Str("interaction_id", r.interactionID).Msg("Marker references a missing interaction")
	}
	r.options = NormalizeChoices(in)
	if in != nil {
		for i := range in.Options {
			in.Options[i].Text = strings.TrimSpace(in.Options[i].Text)
		}
	}

	correctKey := doc.CorrectKey(r.interactionID)
	r.escaped = make([]string, 0, len(r.options))
	for _, opt := range r.options {
		r.escaped = append(r.escaped, normalizeHTML(opt.Value))
		if opt.Key == correctKey {
			r.correctAnswer = opt.Value
		}
	}
	return nil
}

// Mounted reports whether Init found content to render.
func (r *Renderer) Mounted() bool { return r.mounted }

// Frozen reports whether the selection can no longer change.
func (r *Renderer) Frozen() bool { return r.frozen }

// Config returns the renderer's layout configuration.
func (r *Renderer) Config() model.EngineConfig {
	return model.EngineConfig{
		ResizeMode:   resizeMode,
		ResizeHeight: resizeHeight,
		MaxRetries:   r.retry.max,
	}
}

// Status reports whether any save, partial or final, has succeeded.
func (r *Renderer) Status() bool {
	return r.submitted || r.partiallySubmitted
}

// Select makes the option with key the only selected option and sends a partial save.
func (r *Renderer) Select(ctx context.Context, key string) (SaveOutcome, error) {
	if !r.mounted {
		return "", ErrNotMounted
	}
	if r.frozen {
		return "", ErrSelectionFrozen
	}
	if r.interactionID == "" {
		return "", ErrNoQuestion
	}

	idx := -1
	for i, opt := range r.options {
		if opt.Key == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownOption, key)
	}

	r.selected = idx
	r.answer = strings.TrimSpace(r.options[idx].Value)
	r.hasAnswer = true

	return r.Save(ctx, false)
}

// Save sends the current report. A final save is re-sent on failure until the retry budget
// is spent; a partial save is sent once and dropped on failure.
func (r *Renderer) Save(ctx context.Context, final bool) (SaveOutcome, error) {
	if !r.mounted {
		return "", ErrNotMounted
	}
	if r.interactionID == "" {
		return OutcomeSkipped, nil
	}

	report := r.AnswerReport(false)
	ref := r.params.ActivityRef

	if !final {
		status, err := r.adaptor.SavePartialResults(ctx, report, ref)
		if err == nil && status == StatusNoError {
			r.partiallySubmitted = true
			return OutcomePartiallySaved, nil
		}
		r.log.Debug().Err(err).Str("status", string(status)).Msg("Partial save dropped")
		return OutcomeDropped, nil
	}

	for {
		status, err := r.adaptor.SubmitResults(ctx, report, ref)
		if err == nil && status == StatusNoError {
			r.submitted = true
			if err := r.adaptor.CloseActivity(ctx); err != nil {
				r.log.Warn().Err(err).Msg("Close activity failed")
			}
			r.retry.reset()
			return OutcomeSubmitted, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return OutcomeAbandoned, ctxErr
		}
		if !r.retry.next() {
			r.log.Warn().Err(err).Int("tries", r.retry.tries).Msg("Submission abandoned")
			return OutcomeAbandoned, nil
		}
		r.log.Debug().Err(err).Int("try", r.retry.tries).Msg("Retrying submission")
	}
}

// HandleSubmit sends the final report, reveals answers when the shell allows it and
// freezes the selection whatever the outcome.
func (r *Renderer) HandleSubmit(ctx context.Context) (SaveOutcome, error) {
	outcome, err := r.Save(ctx, true)
	if errors.Is(err, ErrNotMounted) {
		return "", err
	}
	if r.adaptor.ShowAnswers() {
		r.marks = r.markAnswers()
	}
	r.frozen = true
	return outcome, err
}

// ShowGrades restores a previously saved report, reveals answers and freezes the selection.
func (r *Renderer) ShowGrades(saved model.AnswerReport, reviewAttempt bool) error {
	if err := r.UpdateLastSavedResults(saved); err != nil {
		return err
	}
	r.reviewAttempt = reviewAttempt
	r.marks = r.markAnswers()
	r.frozen = true
	return nil
}

// Freeze stops further selection, revealing answers when the shell allows it.
// Used when the restored attempt was already submitted.
func (r *Renderer) Freeze() error {
	if !r.mounted {
		return ErrNotMounted
	}
	if r.adaptor.ShowAnswers() {
		r.marks = r.markAnswers()
	}
	r.frozen = true
	return nil
}

// UpdateLastSavedResults restores the selection from a saved report by matching
// trimmed answer text against option text.
func (r *Renderer) UpdateLastSavedResults(last model.AnswerReport) error {
	if !r.mounted {
		return ErrNotMounted
	}
	for num, res := range last.Results {
		answer := strings.TrimSpace(res.Answer)
		if num == 0 {
			r.answer = answer
			r.hasAnswer = true
		}
		for i, opt := range r.options {
			if strings.TrimSpace(opt.Value) == answer {
				r.selected = i
				break
			}
		}
	}
	return nil
}

// AnswerReport builds the report for the current selection. A skipped question reports
// "Not Answered" and scores zero.
func (r *Renderer) AnswerReport(skip bool) model.ResultEnvelope {
	env := model.ResultEnvelope{
		Response: model.AnswerReport{
			Directions: r.directions,
			Results:    []model.ResultItem{},
		},
	}
	if r.interactionID == "" {
		return env
	}

	item := model.ResultItem{
		ItemUID:        r.interactionID,
		Question:       r.questionString(),
		CorrectAnswer:  r.correctAnswer,
		EndCurrentTest: endCurrentTest,
		Possible:       1,
	}
	if skip {
		item.Answer = model.NotAnswered
	} else {
		item.Answer = r.answer
		if r.hasAnswer && r.answer == r.correctAnswer {
			item.Score = 1
		}
	}
	env.Response.Results = append(env.Response.Results, item)
	return env
}

// View returns the current renderable state.
func (r *Renderer) View() RendererView {
	v := RendererView{
		Mounted:            r.mounted,
		ActivityType:       r.params.EngineType,
		ImageLayout:        r.layoutType == model.CanvasMCQImage,
		Directions:         r.directions,
		InteractionID:      r.interactionID,
		Options:            make([]OptionView, 0, len(r.options)),
		Submitted:          r.submitted,
		PartiallySubmitted: r.partiallySubmitted,
		Frozen:             r.frozen,
		ReviewAttempt:      r.reviewAttempt,
		Content:            r.content,
	}
	if r.content != nil {
		v.MediaContent = r.content.MediaContent
		if r.content.DisplaySubmit != nil {
			v.DisplaySubmit = *r.content.DisplaySubmit
		}
		if len(r.content.Canvas.Data.QuestionData) > 0 {
			v.QuestionText = r.content.Canvas.Data.QuestionData[0].Text
		}
	}

	for i, opt := range r.options {
		ov := OptionView{Key: opt.Key, Value: opt.Value, Selected: i == r.selected}
		if i < len(r.marks) {
			correct := r.marks[i].Correct
			ov.Correct = &correct
		}
		v.Options = append(v.Options, ov)
	}
	return v
}

// Marks returns the revealed answer marks, if any.
func (r *Renderer) Marks() []Mark {
	out := make([]Mark, len(r.marks))
	copy(out, r.marks)
	return out
}

func (r *Renderer) markAnswers() []Mark {
	marks := make([]Mark, 0, len(r.options))
	for i, opt := range r.options {
		marks = append(marks, Mark{
			Index:   i,
			Key:     opt.Key,
			Correct: strings.TrimSpace(opt.Value) == strings.TrimSpace(r.correctAnswer),
		})
	}
	return marks
}

func (r *Renderer) questionString() string {
	return r.questionText + " ^^ " + strings.Join(r.escaped, ",") + " ^^ " + r.interactionID
}
