package model

import (
	"encoding/json"
	"errors"
)

// ErrMalformedOption is returned when an option object does not hold exactly one key.
var ErrMalformedOption = errors.New("option must be an object with exactly one key")

// ErrDuplicateOptionKey is returned when two options of one interaction share a key.
var ErrDuplicateOptionKey = errors.New("duplicate option key")

// Extras carries JSON object members the typed model does not know about,
// so that authored content survives a decode/encode round trip.
type Extras map[string]json.RawMessage

// marshalWithExtras encodes known, then merges in any extra members not already present.
func marshalWithExtras(known any, extra Extras) ([]byte, error) {
	raw, err := json.Marshal(known)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return raw, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(raw, &merged); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// collectExtras returns the members of the object in data whose names are not in known.
func collectExtras(data []byte, known ...string) (Extras, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}
