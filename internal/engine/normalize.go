package engine

import (
	"strings"

	"github.com/stemsi/mcq-engine/internal/model"
)

// NormalizeChoices converts an interaction's options into key/value records for display.
// Text is trimmed; order and length are preserved.
func NormalizeChoices(in *model.Interaction) []model.OptionRecord {
	if in == nil {
		return []model.OptionRecord{}
	}
	out := make([]model.OptionRecord, 0, len(in.Options))
	for _, opt := range in.Options {
		out = append(out, model.OptionRecord{
			Key:   opt.Key,
			Value: strings.TrimSpace(opt.Text),
		})
	}
	return out
}

// NormalizeOptions converts options into editable records. The option whose key equals
// correctKey carries its own text as the correct mark.
func NormalizeOptions(in *model.Interaction, correctKey string) []model.OptionRecord {
	if in == nil {
		return []model.OptionRecord{}
	}
	out := make([]model.OptionRecord, 0, len(in.Options))
	for i, opt := range in.Options {
		rec := model.OptionRecord{
			Key:   opt.Key,
			Value: opt.Text,
			Index: i,
		}
		if opt.Key == correctKey {
			rec.IsCorrect = model.MarkCorrect(opt.Text)
		}
		out = append(out, rec)
	}
	return out
}

// DenormalizeOptions drops editor-only fields and returns options in their current order.
func DenormalizeOptions(records []model.OptionRecord) []model.OptionEntry {
	out := make([]model.OptionEntry, 0, len(records))
	for _, rec := range records {
		out = append(out, model.OptionEntry{Key: rec.Key, Text: rec.Value})
	}
	return out
}

// reindex assigns consecutive indices matching slice position.
func reindex(records []model.OptionRecord) {
	for i := range records {
		records[i].Index = i
	}
}
