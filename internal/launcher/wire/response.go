package wire

import (
	"encoding/json"
	"fmt"
)

// ResponseKind tags the variant of a Response.
type ResponseKind int

const (
	ResponseClose ResponseKind = iota
	ResponseContext
	ResponseDesktopEntry
	ResponseUpdate
	ResponseFill
)

// Response is the tagged union sent service->frontend.
type Response struct {
	Kind         ResponseKind
	Context      ContextPayload
	DesktopEntry DesktopEntryPayload
	Update       []SearchResult
	Fill         string
}

func NewCloseResponse() Response { return Response{Kind: ResponseClose} }
func NewContextResponse(id Indice, options []ContextOption) Response {
	return Response{Kind: ResponseContext, Context: ContextPayload{ID: id, Options: options}}
}
func NewDesktopEntryResponse(path string, pref GpuPreference) Response {
	return Response{Kind: ResponseDesktopEntry, DesktopEntry: DesktopEntryPayload{Path: path, GpuPreference: pref}}
}
func NewUpdateResponse(results []SearchResult) Response {
	if results == nil {
		results = []SearchResult{}
	}
	return Response{Kind: ResponseUpdate, Update: results}
}
func NewFillResponse(text string) Response { return Response{Kind: ResponseFill, Fill: text} }

func (r Response) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case ResponseClose:
		return []byte(`"Close"`), nil
	case ResponseContext:
		return json.Marshal(map[string]ContextPayload{"Context": r.Context})
	case ResponseDesktopEntry:
		return json.Marshal(map[string]DesktopEntryPayload{"DesktopEntry": r.DesktopEntry})
	case ResponseUpdate:
		list := r.Update
		if list == nil {
			list = []SearchResult{}
		}
		return json.Marshal(map[string][]SearchResult{"Update": list})
	case ResponseFill:
		return json.Marshal(map[string]string{"Fill": r.Fill})
	default:
		return nil, fmt.Errorf("response: unknown kind %d", r.Kind)
	}
}

func (r *Response) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		if tag == "Close" {
			*r = NewCloseResponse()
			return nil
		}
		return fmt.Errorf("response: unrecognized bare string variant %q", tag)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("response: %w", err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("response: expected single-key object, got %d keys", len(raw))
	}

	if v, ok := raw["Context"]; ok {
		var p ContextPayload
		if err := json.Unmarshal(v, &p); err != nil {
			return err
		}
		*r = Response{Kind: ResponseContext, Context: p}
		return nil
	}
	if v, ok := raw["DesktopEntry"]; ok {
		var p DesktopEntryPayload
		if err := json.Unmarshal(v, &p); err != nil {
			return err
		}
		*r = Response{Kind: ResponseDesktopEntry, DesktopEntry: p}
		return nil
	}
	if v, ok := raw["Update"]; ok {
		var list []SearchResult
		if err := json.Unmarshal(v, &list); err != nil {
			return err
		}
		*r = NewUpdateResponse(list)
		return nil
	}
	if v, ok := raw["Fill"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return err
		}
		*r = NewFillResponse(s)
		return nil
	}

	return fmt.Errorf("response: unrecognized variant in %s", string(data))
}
