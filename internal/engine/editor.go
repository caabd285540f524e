package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/mcq-engine/internal/model"
)

// Editor lets an author change the options of every interaction in a document and sends
// the re-serialised document to an EditorAdaptor. An Editor is not safe for concurrent use.
type Editor struct {
	log       zerolog.Logger
	reference string

	adaptor EditorAdaptor
	params  model.EngineParams
	doc     *model.Document
	mounted bool

	interactionIDs  []string
	blockMarkers    [][]Marker
	questionEditing []bool
	interactions    []*editableInteraction

	hasUnsavedChanges bool
}

type editableInteraction struct {
	key     string
	typ     string
	options []model.OptionRecord
	extra   model.Extras
}

// EditorView is the editable state of a mounted editor.
type EditorView struct {
	Mounted           bool              `json:"mounted"`
	HasUnsavedChanges bool              `json:"has_unsaved_changes"`
	InteractionIDs    []string          `json:"interaction_ids"`
	Questions         []QuestionView    `json:"questions"`
	Interactions      []InteractionView `json:"interactions"`
}

type QuestionView struct {
	Index     int    `json:"index"`
	Text      string `json:"text"`
	IsEditing bool   `json:"is_editing"`
}

type InteractionView struct {
	Index   int                  `json:"index"`
	Key     string               `json:"key"`
	Type    string               `json:"type"`
	Options []model.OptionRecord `json:"options"`
}

// NewEditor creates an unmounted editor.
func NewEditor(opts ...Option) *Editor {
	s := applyOptions(opts)
	return &Editor{
		log:       s.log,
		reference: s.reference,
	}
}

// Init mounts the editor on a deep copy of doc. Markers are stripped from every question
// block and every interaction is normalised for editing.
func (e *Editor) Init(params model.EngineParams, adaptor EditorAdaptor, layout string, doc *model.Document) error {
	if adaptor == nil {
		return ErrAdaptorRequired
	}
	if layout != model.LayoutMCQEditor {
		return fmt.Errorf("%w: %q", ErrUnknownLayout, layout)
	}

	e.adaptor = adaptor
	e.params = params

	if doc == nil || doc.Content == nil {
		e.log.Debug().Msg("Document has no content, editor left unmounted")
		return nil
	}

	clone, err := doc.Clone()
	if err != nil {
		return fmt.Errorf("init editor: %w", err)
	}

	blocks := clone.Content.Canvas.Data.QuestionData
	e.blockMarkers = make([][]Marker, len(blocks))
	e.questionEditing = make([]bool, len(blocks))
	for i := range blocks {
		ex, err := ExtractMarkers(blocks[i].Text, e.reference)
		if err != nil {
			return fmt.Errorf("init editor: question %d: %w", i, err)
		}
		blocks[i].Text = ex.Text
		e.blockMarkers[i] = ex.Markers
		for _, m := range ex.Markers {
			e.interactionIDs = append(e.interactionIDs, m.InteractionID)
		}
	}

	for _, id := range clone.Content.Interactions.IDs() {
		in, _ := clone.Content.Interactions.Get(id)
		e.interactions = append(e.interactions, &editableInteraction{
			key:     id,
			typ:     in.Type,
			options: NormalizeOptions(in, clone.CorrectKey(id)),
			extra:   in.Extra,
		})
	}
	clone.Content.Interactions = model.Interactions{}

	e.doc = clone
	e.mounted = true
	return nil
}

// Mounted reports whether Init found content to edit.
func (e *Editor) Mounted() bool { return e.mounted }

// Config returns the editor's layout configuration.
func (e *Editor) Config() model.EngineConfig {
	return model.EngineConfig{ResizeMode: resizeMode, ResizeHeight: resizeHeight}
}

// Status reports whether there are changes not yet saved.
func (e *Editor) Status() bool { return e.hasUnsavedChanges }

// AddOption appends an empty option with a fresh key, already in editing state.
func (e *Editor) AddOption(ctx context.Context, ii int) (model.OptionRecord, error) {
	in, err := e.interaction(ii)
	if err != nil {
		return model.OptionRecord{}, err
	}
	rec := model.OptionRecord{
		Key:      uuid.NewString(),
		IsEdited: true,
		Index:    len(in.options),
	}
	in.options = append(in.options, rec)
	return rec, e.changed(ctx)
}

// RemoveOption deletes an option and reassigns indices.
func (e *Editor) RemoveOption(ctx context.Context, ii, oi int) error {
	in, err := e.interaction(ii)
	if err != nil {
		return err
	}
	if oi < 0 || oi >= len(in.options) {
		return fmt.Errorf("%w: option %d", ErrOutOfRange, oi)
	}
	in.options = append(in.options[:oi], in.options[oi+1:]...)
	reindex(in.options)
	return e.changed(ctx)
}

// MoveOption moves the option at from to position to and reassigns indices.
func (e *Editor) MoveOption(ctx context.Context, ii, from, to int) error {
	in, err := e.interaction(ii)
	if err != nil {
		return err
	}
	n := len(in.options)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("%w: move %d to %d", ErrOutOfRange, from, to)
	}

	moved := in.options[from]
	in.options = append(in.options[:from], in.options[from+1:]...)
	in.options = append(in.options[:to], append([]model.OptionRecord{moved}, in.options[to:]...)...)
	reindex(in.options)
	return e.changed(ctx)
}

// SetCorrect designates the option with key as the correct answer.
func (e *Editor) SetCorrect(ctx context.Context, ii int, key string) error {
	in, err := e.interaction(ii)
	if err != nil {
		return err
	}

	found := false
	for i := range in.options {
		if in.options[i].Key == key {
			in.options[i].IsCorrect = model.MarkCorrect(in.options[i].Value)
			found = true
		} else {
			in.options[i].IsCorrect = model.CorrectMark{}
		}
	}
	if !found {
		return fmt.Errorf("%w: %q", ErrUnknownOption, key)
	}

	if e.doc.Responses == nil {
		e.doc.Responses = make(map[string]model.Response)
	}
	resp := e.doc.Responses[in.key]
	resp.Correct = key
	e.doc.Responses[in.key] = resp

	return e.changed(ctx)
}

// ToggleEditing flips an option between editing and read-only and returns the new state.
func (e *Editor) ToggleEditing(ii, oi int) (bool, error) {
	rec, err := e.option(ii, oi)
	if err != nil {
		return false, err
	}
	rec.IsEdited = !rec.IsEdited
	return rec.IsEdited, nil
}

// EditOptionText replaces an option's text. The shell is notified when editing ends.
func (e *Editor) EditOptionText(ii, oi int, text string) error {
	rec, err := e.option(ii, oi)
	if err != nil {
		return err
	}
	rec.Value = text
	if rec.IsCorrect.Marked {
		rec.IsCorrect.Text = text
	}
	return nil
}

// EndEditing returns an option to read-only.
func (e *Editor) EndEditing(ctx context.Context, ii, oi int) error {
	rec, err := e.option(ii, oi)
	if err != nil {
		return err
	}
	rec.IsEdited = false
	return e.changed(ctx)
}

// ToggleQuestionEditing flips a question block between editing and read-only.
func (e *Editor) ToggleQuestionEditing(qi int) (bool, error) {
	if err := e.question(qi); err != nil {
		return false, err
	}
	e.questionEditing[qi] = !e.questionEditing[qi]
	return e.questionEditing[qi], nil
}

// EditQuestionText replaces the marker-free text of a question block.
func (e *Editor) EditQuestionText(qi int, text string) error {
	if err := e.question(qi); err != nil {
		return err
	}
	e.doc.Content.Canvas.Data.QuestionData[qi].Text = text
	return nil
}

// EndQuestionEditing returns a question block to read-only.
func (e *Editor) EndQuestionEditing(ctx context.Context, qi int) error {
	if err := e.question(qi); err != nil {
		return err
	}
	e.questionEditing[qi] = false
	return e.changed(ctx)
}

// SaveItemInEditor sends the re-serialised document to the shell for persistence.
func (e *Editor) SaveItemInEditor(ctx context.Context) error {
	if !e.mounted {
		return ErrNotMounted
	}
	doc, err := e.Transform()
	if err != nil {
		return err
	}
	if err := e.adaptor.SubmitEditChanges(ctx, doc); err != nil {
		return fmt.Errorf("submit edit changes: %w", err)
	}
	e.hasUnsavedChanges = false
	return nil
}

// Transform rebuilds the authored form of the working document: interactions keyed by id,
// options as single-key objects, and each block's markers appended to the end of its text.
func (e *Editor) Transform() (*model.Document, error) {
	if !e.mounted {
		return nil, ErrNotMounted
	}
	out, err := e.doc.Clone()
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}

	var interactions model.Interactions
	for _, in := range e.interactions {
		interactions.Set(in.key, &model.Interaction{
			Type:    in.typ,
			Options: DenormalizeOptions(in.options),
			Extra:   in.extra,
		})
	}
	out.Content.Interactions = interactions

	blocks := out.Content.Canvas.Data.QuestionData
	for i := range blocks {
		if i < len(e.blockMarkers) {
			blocks[i].Text = RestoreMarkers(blocks[i].Text, e.blockMarkers[i])
		}
	}
	return out, nil
}

// View returns a snapshot of the editable state.
func (e *Editor) View() EditorView {
	v := EditorView{
		Mounted:           e.mounted,
		HasUnsavedChanges: e.hasUnsavedChanges,
		InteractionIDs:    append([]string{}, e.interactionIDs...),
		Questions:         []QuestionView{},
		Interactions:      make([]InteractionView, 0, len(e.interactions)),
	}
	if e.doc != nil {
		for i, block := range e.doc.Content.Canvas.Data.QuestionData {
			v.Questions = append(v.Questions, QuestionView{
				Index:     i,
				Text:      block.Text,
				IsEditing: e.questionEditing[i],
			})
		}
	}
	for i, in := range e.interactions {
		typ := in.typ
		if typ == "" {
			typ = model.DefaultInteractionType
		}
		v.Interactions = append(v.Interactions, InteractionView{
			Index:   i,
			Key:     in.key,
			Type:    typ,
			Options: append([]model.OptionRecord{}, in.options...),
		})
	}
	return v
}

func (e *Editor) changed(ctx context.Context) error {
	e.hasUnsavedChanges = true
	doc, err := e.Transform()
	if err != nil {
		return err
	}
	if err := e.adaptor.ItemChangedInEditor(ctx, doc); err != nil {
		e.log.Warn().Err(err).Msg("Item changed notification failed")
	}
	return nil
}

func (e *Editor) interaction(ii int) (*editableInteraction, error) {
	if !e.mounted {
		return nil, ErrNotMounted
	}
	if ii < 0 || ii >= len(e.interactions) {
		return nil, fmt.Errorf("%w: interaction %d", ErrUnknownInteraction, ii)
	}
	return e.interactions[ii], nil
}

func (e *Editor) option(ii, oi int) (*model.OptionRecord, error) {
	in, err := e.interaction(ii)
	if err != nil {
		return nil, err
	}
	if oi < 0 || oi >= len(in.options) {
		return nil, fmt.Errorf("%w: option %d", ErrOutOfRange, oi)
	}
	return &in.options[oi], nil
}

func (e *Editor) question(qi int) error {
	if !e.mounted {
		return ErrNotMounted
	}
	if qi < 0 || qi >= len(e.questionEditing) {
		return fmt.Errorf("%w: %d", ErrUnknownQuestion, qi)
	}
	return nil
}
