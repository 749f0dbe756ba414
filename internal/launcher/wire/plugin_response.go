package wire

import (
	"encoding/json"
	"fmt"
)

// PluginResponseKind tags the variant of a PluginResponse.
type PluginResponseKind int

const (
	PluginResponseAppend PluginResponseKind = iota
	PluginResponseClear
	PluginResponseClose
	PluginResponseContext
	PluginResponseDesktopEntry
	PluginResponseFill
	PluginResponseFinished
)

// PluginResponse is the tagged union sent plugin->service.
type PluginResponse struct {
	Kind         PluginResponseKind
	Append       PluginSearchResult
	Context      ContextPayload
	DesktopEntry DesktopEntryPayload
	Fill         string
}

func NewAppendResponse(r PluginSearchResult) PluginResponse {
	return PluginResponse{Kind: PluginResponseAppend, Append: r}
}
func NewClearResponse() PluginResponse   { return PluginResponse{Kind: PluginResponseClear} }
func NewPluginCloseResponse() PluginResponse { return PluginResponse{Kind: PluginResponseClose} }
func NewPluginContextResponse(id Indice, options []ContextOption) PluginResponse {
	return PluginResponse{Kind: PluginResponseContext, Context: ContextPayload{ID: id, Options: options}}
}
func NewPluginDesktopEntryResponse(path string, pref GpuPreference) PluginResponse {
	return PluginResponse{Kind: PluginResponseDesktopEntry, DesktopEntry: DesktopEntryPayload{Path: path, GpuPreference: pref}}
}
func NewPluginFillResponse(text string) PluginResponse {
	return PluginResponse{Kind: PluginResponseFill, Fill: text}
}
func NewFinishedResponse() PluginResponse { return PluginResponse{Kind: PluginResponseFinished} }

func (p PluginResponse) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case PluginResponseAppend:
		return json.Marshal(map[string]PluginSearchResult{"Append": p.Append})
	case PluginResponseClear:
		return []byte(`"Clear"`), nil
	case PluginResponseClose:
		return []byte(`"Close"`), nil
	case PluginResponseContext:
		return json.Marshal(map[string]ContextPayload{"Context": p.Context})
	case PluginResponseDesktopEntry:
		return json.Marshal(map[string]DesktopEntryPayload{"DesktopEntry": p.DesktopEntry})
	case PluginResponseFill:
		return json.Marshal(map[string]string{"Fill": p.Fill})
	case PluginResponseFinished:
		return []byte(`"Finished"`), nil
	default:
		return nil, fmt.Errorf("plugin response: unknown kind %d", p.Kind)
	}
}

func (p *PluginResponse) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		switch tag {
		case "Clear":
			*p = NewClearResponse()
			return nil
		case "Close":
			*p = NewPluginCloseResponse()
			return nil
		case "Finished":
			*p = NewFinishedResponse()
			return nil
		default:
			return fmt.Errorf("plugin response: unrecognized bare string variant %q", tag)
		}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("plugin response: %w", err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("plugin response: expected single-key object, got %d keys", len(raw))
	}

	if v, ok := raw["Append"]; ok {
		var r PluginSearchResult
		if err := json.Unmarshal(v, &r); err != nil {
			return err
		}
		*p = NewAppendResponse(r)
		return nil
	}
	if v, ok := raw["Context"]; ok {
		var c ContextPayload
		if err := json.Unmarshal(v, &c); err != nil {
			return err
		}
		*p = PluginResponse{Kind: PluginResponseContext, Context: c}
		return nil
	}
	if v, ok := raw["DesktopEntry"]; ok {
		var d DesktopEntryPayload
		if err := json.Unmarshal(v, &d); err != nil {
			return err
		}
		*p = PluginResponse{Kind: PluginResponseDesktopEntry, DesktopEntry: d}
		return nil
	}
	if v, ok := raw["Fill"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return err
		}
		*p = NewPluginFillResponse(s)
		return nil
	}

	return fmt.Errorf("plugin response: unrecognized variant in %s", string(data))
}
