package engine

import (
	"testing"

	"github.com/stemsi/mcq-engine/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeChoices_TrimsAndKeepsOrder(t *testing.T) {
	in := &model.Interaction{Options: []model.OptionEntry{
		{Key: "b", Text: "  second "},
		{Key: "a", Text: "first"},
	}}

	got := NormalizeChoices(in)
	assert.Equal(t, []model.OptionRecord{
		{Key: "b", Value: "second"},
		{Key: "a", Value: "first"},
	}, got)

	assert.Empty(t, NormalizeChoices(nil))
}

func TestNormalizeOptions_MarksCorrect(t *testing.T) {
	in := &model.Interaction{Options: []model.OptionEntry{
		{Key: "choiceA", Text: "She has the flu."},
		{Key: "choiceB", Text: "She has the measles."},
	}}

	got := NormalizeOptions(in, "choiceB")
	assert.Equal(t, []model.OptionRecord{
		{Key: "choiceA", Value: "She has the flu.", Index: 0},
		{Key: "choiceB", Value: "She has the measles.", Index: 1, IsCorrect: model.MarkCorrect("She has the measles.")},
	}, got)
}

func TestDenormalizeOptions_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		options []model.OptionEntry
	}{
		{name: "empty", options: []model.OptionEntry{}},
		{name: "single", options: []model.OptionEntry{{Key: "k", Text: "v"}}},
		{name: "whitespace is preserved", options: []model.OptionEntry{{Key: "a", Text: " x "}, {Key: "b", Text: "y"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := &model.Interaction{Options: tt.options}
			assert.Equal(t, tt.options, DenormalizeOptions(NormalizeOptions(in, "")))
		})
	}
}

func TestRetrier_Budget(t *testing.T) {
	r := newRetrier(2)
	assert.True(t, r.next())
	assert.True(t, r.next())
	assert.False(t, r.next())
	assert.Equal(t, 2, r.tries)

	r.reset()
	assert.True(t, r.next())

	assert.False(t, newRetrier(-1).next())
}
