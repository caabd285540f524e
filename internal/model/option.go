package model

import (
	"bytes"
	"encoding/json"
)

// OptionRecord is the working form of an option. The renderer only fills Key and Value.
type OptionRecord struct {
	Key       string      `json:"key"`
	Value     string      `json:"value"`
	Index     int         `json:"index"`
	IsEdited  bool        `json:"isEdited"`
	IsCorrect CorrectMark `json:"isCorrect"`
}

// CorrectMark encodes as false for a wrong option and as the option text for the correct one.
type CorrectMark struct {
	Marked bool
	Text   string
}

// MarkCorrect returns a mark carrying the correct option's text.
func MarkCorrect(text string) CorrectMark {
	return CorrectMark{Marked: true, Text: text}
}

func (m CorrectMark) MarshalJSON() ([]byte, error) {
	if !m.Marked {
		return []byte("false"), nil
	}
	return json.Marshal(m.Text)
}

func (m *CorrectMark) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "false", "null":
		*m = CorrectMark{}
		return nil
	case "true":
		*m = CorrectMark{Marked: true}
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	*m = CorrectMark{Marked: true, Text: text}
	return nil
}
