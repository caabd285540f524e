package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DefaultInteractionType is the interaction type key used by single-choice questions.
const DefaultInteractionType = "MCQ"

// Document is an authored MCQ content document.
type Document struct {
	Content   *Content            `json:"content,omitempty"`
	Responses map[string]Response `json:"responses,omitempty"`
	Extra     Extras              `json:"-"`
}

func (d Document) MarshalJSON() ([]byte, error) {
	type alias Document
	return marshalWithExtras(alias(d), d.Extra)
}

func (d *Document) UnmarshalJSON(data []byte) error {
	type alias Document
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := collectExtras(data, "content", "responses")
	if err != nil {
		return err
	}
	*d = Document(a)
	d.Extra = extra
	return nil
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() (*Document, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("clone document: %w", err)
	}
	var out Document
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("clone document: %w", err)
	}
	return &out, nil
}

// CorrectKey returns the designated correct option key for an interaction.
func (d *Document) CorrectKey(interactionID string) string {
	if d.Responses == nil {
		return ""
	}
	return d.Responses[interactionID].Correct
}

// Content is the renderable body of a document.
type Content struct {
	Instructions []TaggedValue `json:"instructions,omitempty"`
	Canvas       Canvas        `json:"canvas"`
	Stimulus     []TaggedValue `json:"stimulus,omitempty"`
	Interactions Interactions  `json:"interactions"`

	// Populated by the renderer when mounted.
	DisplaySubmit *bool  `json:"displaySubmit,omitempty"`
	Directions    string `json:"directions,omitempty"`
	MediaContent  string `json:"mediaContent,omitempty"`

	Extra Extras `json:"-"`
}

func (c Content) MarshalJSON() ([]byte, error) {
	type alias Content
	return marshalWithExtras(alias(c), c.Extra)
}

func (c *Content) UnmarshalJSON(data []byte) error {
	type alias Content
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := collectExtras(data,
		"instructions", "canvas", "stimulus", "interactions",
		"displaySubmit", "directions", "mediaContent")
	if err != nil {
		return err
	}
	*c = Content(a)
	c.Extra = extra
	return nil
}

// Canvas holds the layout name and question blocks.
type Canvas struct {
	Layout string     `json:"layout"`
	Data   CanvasData `json:"data"`
	Extra  Extras     `json:"-"`
}

func (c Canvas) MarshalJSON() ([]byte, error) {
	type alias Canvas
	return marshalWithExtras(alias(c), c.Extra)
}

func (c *Canvas) UnmarshalJSON(data []byte) error {
	type alias Canvas
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := collectExtras(data, "layout", "data")
	if err != nil {
		return err
	}
	*c = Canvas(a)
	c.Extra = extra
	return nil
}

type CanvasData struct {
	QuestionData []QuestionBlock `json:"questiondata"`
	Extra        Extras          `json:"-"`
}

func (c CanvasData) MarshalJSON() ([]byte, error) {
	type alias CanvasData
	return marshalWithExtras(alias(c), c.Extra)
}

func (c *CanvasData) UnmarshalJSON(data []byte) error {
	type alias CanvasData
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := collectExtras(data, "questiondata")
	if err != nil {
		return err
	}
	*c = CanvasData(a)
	c.Extra = extra
	return nil
}

// QuestionBlock is one rich-text question block. Text may embed interaction markers.
type QuestionBlock struct {
	Text  string `json:"text"`
	Extra Extras `json:"-"`
}

func (q QuestionBlock) MarshalJSON() ([]byte, error) {
	type alias QuestionBlock
	return marshalWithExtras(alias(q), q.Extra)
}

func (q *QuestionBlock) UnmarshalJSON(data []byte) error {
	type alias QuestionBlock
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := collectExtras(data, "text")
	if err != nil {
		return err
	}
	*q = QuestionBlock(a)
	q.Extra = extra
	return nil
}

// TaggedValue is an object whose "tag" names the member carrying its value,
// e.g. {"tag":"text","text":"Pick one"} or {"tag":"image","image":"cat.png"}.
type TaggedValue struct {
	Tag   string
	Value string
	Extra Extras
}

func (t TaggedValue) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(t.Extra)+2)
	for k, v := range t.Extra {
		out[k] = v
	}
	tag, err := json.Marshal(t.Tag)
	if err != nil {
		return nil, err
	}
	out["tag"] = tag
	if t.Tag != "" && t.Tag != "tag" {
		val, err := json.Marshal(t.Value)
		if err != nil {
			return nil, err
		}
		out[t.Tag] = val
	}
	return json.Marshal(out)
}

func (t *TaggedValue) UnmarshalJSON(data []byte) error {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	*t = TaggedValue{}
	if raw, ok := all["tag"]; ok {
		if err := json.Unmarshal(raw, &t.Tag); err != nil {
			return fmt.Errorf("tag: %w", err)
		}
		delete(all, "tag")
	}
	if raw, ok := all[t.Tag]; ok {
		// Non-string bodies stay opaque in Extra.
		if err := json.Unmarshal(raw, &t.Value); err == nil {
			delete(all, t.Tag)
		}
	}
	if len(all) > 0 {
		t.Extra = all
	}
	return nil
}

// Response holds the designated correct option key of an interaction.
type Response struct {
	Correct string `json:"correct"`
	Extra   Extras `json:"-"`
}

func (r Response) MarshalJSON() ([]byte, error) {
	type alias Response
	return marshalWithExtras(alias(r), r.Extra)
}

func (r *Response) UnmarshalJSON(data []byte) error {
	type alias Response
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := collectExtras(data, "correct")
	if err != nil {
		return err
	}
	*r = Response(a)
	r.Extra = extra
	return nil
}

// Interaction is one MCQ interaction: {"type":"MCQ","MCQ":[{"choiceA":"..."}, ...]}.
type Interaction struct {
	Type    string
	Options []OptionEntry
	Extra   Extras
}

func (in Interaction) typeKey() string {
	if in.Type == "" {
		return DefaultInteractionType
	}
	return in.Type
}

func (in Interaction) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(in.Extra)+2)
	for k, v := range in.Extra {
		out[k] = v
	}
	typ, err := json.Marshal(in.typeKey())
	if err != nil {
		return nil, err
	}
	out["type"] = typ

	options := in.Options
	if options == nil {
		options = []OptionEntry{}
	}
	opts, err := json.Marshal(options)
	if err != nil {
		return nil, err
	}
	out[in.typeKey()] = opts
	return json.Marshal(out)
}

func (in *Interaction) UnmarshalJSON(data []byte) error {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	*in = Interaction{}
	if raw, ok := all["type"]; ok {
		if err := json.Unmarshal(raw, &in.Type); err != nil {
			return fmt.Errorf("interaction type: %w", err)
		}
		delete(all, "type")
	}
	if raw, ok := all[in.typeKey()]; ok {
		if err := json.Unmarshal(raw, &in.Options); err != nil {
			return fmt.Errorf("interaction options: %w", err)
		}
		seen := make(map[string]struct{}, len(in.Options))
		for _, o := range in.Options {
			if _, dup := seen[o.Key]; dup {
				return fmt.Errorf("%w: %q", ErrDuplicateOptionKey, o.Key)
			}
			seen[o.Key] = struct{}{}
		}
		delete(all, in.typeKey())
	}
	if len(all) > 0 {
		in.Extra = all
	}
	return nil
}

// OptionEntry is a single-key option object {"<key>": "<text>"}.
type OptionEntry struct {
	Key  string
	Text string
}

func (o OptionEntry) MarshalJSON() ([]byte, error) {
	key, err := json.Marshal(o.Key)
	if err != nil {
		return nil, err
	}
	text, err := json.Marshal(o.Text)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	buf.Write(key)
	buf.WriteByte(':')
	buf.Write(text)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (o *OptionEntry) UnmarshalJSON(data []byte) error {
	var all map[string]string
	if err := json.Unmarshal(data, &all); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOption, err)
	}
	if len(all) != 1 {
		return ErrMalformedOption
	}
	for k, v := range all {
		o.Key, o.Text = k, v
	}
	return nil
}

// Interactions is an insertion-ordered map of interaction id to interaction.
type Interactions struct {
	order []string
	byID  map[string]*Interaction
}

// Len returns the number of interactions.
func (m *Interactions) Len() int { return len(m.order) }

// IDs returns interaction ids in document order.
func (m *Interactions) IDs() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Get looks up an interaction by id.
func (m *Interactions) Get(id string) (*Interaction, bool) {
	in, ok := m.byID[id]
	return in, ok
}

// Set stores in under id, keeping the position of an existing id.
func (m *Interactions) Set(id string, in *Interaction) {
	if m.byID == nil {
		m.byID = make(map[string]*Interaction)
	}
	if _, ok := m.byID[id]; !ok {
		m.order = append(m.order, id)
	}
	m.byID[id] = in
}

func (m Interactions) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range m.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(m.byID[id])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *Interactions) UnmarshalJSON(data []byte) error {
	*m = Interactions{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("interactions: expected object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		id, _ := tok.(string)

		var in Interaction
		if err := dec.Decode(&in); err != nil {
			return fmt.Errorf("interaction %q: %w", id, err)
		}
		m.Set(id, &in)
	}
	_, err = dec.Token()
	return err
}
