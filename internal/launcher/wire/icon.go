package wire

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON renders the single-key tagged-union form, e.g. {"Name":"foo"}.
func (i IconSource) MarshalJSON() ([]byte, error) {
	switch i.kind {
	case iconKindName:
		return json.Marshal(struct {
			Name string `json:"Name"`
		}{i.Name})
	case iconKindMime:
		return json.Marshal(struct {
			Mime string `json:"Mime"`
		}{i.Mime})
	case iconKindWindow:
		return json.Marshal(struct {
			Window [2]uint32 `json:"Window"`
		}{*i.Window})
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON parses the single-key tagged-union form.
func (i *IconSource) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("icon source: %w", err)
	}
	if v, ok := raw["Name"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return err
		}
		*i = NewIconName(s)
		return nil
	}
	if v, ok := raw["Mime"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return err
		}
		*i = NewIconMime(s)
		return nil
	}
	if v, ok := raw["Window"]; ok {
		var w [2]uint32
		if err := json.Unmarshal(v, &w); err != nil {
			return err
		}
		*i = NewIconWindow(w[0], w[1])
		return nil
	}
	return fmt.Errorf("icon source: unrecognized variant in %s", string(data))
}
