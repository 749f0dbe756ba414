package wire

import (
	"encoding/json"
	"fmt"
)

// RequestKind tags the variant of a Request.
type RequestKind int

const (
	RequestSearch RequestKind = iota
	RequestInterrupt
	RequestActivate
	RequestActivateContext
	RequestComplete
	RequestContext
	RequestQuit
	RequestExit
)

// Request is the tagged union sent frontend->service and service->plugin.
type Request struct {
	Kind        RequestKind
	Query       string // Search
	ID          Indice // Activate, Complete, Context, Quit, ActivateContext.ID
	ContextID   Indice // ActivateContext.Context
}

func NewSearch(query string) Request          { return Request{Kind: RequestSearch, Query: query} }
func NewInterrupt() Request                   { return Request{Kind: RequestInterrupt} }
func NewActivate(id Indice) Request            { return Request{Kind: RequestActivate, ID: id} }
func NewActivateContext(id, context Indice) Request {
	return Request{Kind: RequestActivateContext, ID: id, ContextID: context}
}
func NewComplete(id Indice) Request { return Request{Kind: RequestComplete, ID: id} }
func NewContext(id Indice) Request  { return Request{Kind: RequestContext, ID: id} }
func NewQuit(id Indice) Request     { return Request{Kind: RequestQuit, ID: id} }
func NewExit() Request              { return Request{Kind: RequestExit} }

func (r Request) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case RequestSearch:
		return json.Marshal(map[string]string{"Search": r.Query})
	case RequestInterrupt:
		return []byte(`"Interrupt"`), nil
	case RequestActivate:
		return json.Marshal(map[string]Indice{"Activate": r.ID})
	case RequestActivateContext:
		return json.Marshal(map[string]interface{}{
			"ActivateContext": map[string]Indice{"id": r.ID, "context": r.ContextID},
		})
	case RequestComplete:
		return json.Marshal(map[string]Indice{"Complete": r.ID})
	case RequestContext:
		return json.Marshal(map[string]Indice{"Context": r.ID})
	case RequestQuit:
		return json.Marshal(map[string]Indice{"Quit": r.ID})
	case RequestExit:
		return []byte(`"Exit"`), nil
	default:
		return nil, fmt.Errorf("request: unknown kind %d", r.Kind)
	}
}

func (r *Request) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		switch tag {
		case "Interrupt":
			*r = NewInterrupt()
			return nil
		case "Exit":
			*r = NewExit()
			return nil
		default:
			return fmt.Errorf("request: unrecognized bare string variant %q", tag)
		}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("request: %w", err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("request: expected single-key object, got %d keys", len(raw))
	}

	if v, ok := raw["Search"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return err
		}
		*r = NewSearch(s)
		return nil
	}
	if v, ok := raw["Interrupt"]; ok {
		_ = v
		*r = NewInterrupt()
		return nil
	}
	if v, ok := raw["Activate"]; ok {
		var id Indice
		if err := json.Unmarshal(v, &id); err != nil {
			return err
		}
		*r = NewActivate(id)
		return nil
	}
	if v, ok := raw["ActivateContext"]; ok {
		var body struct {
			ID      Indice `json:"id"`
			Context Indice `json:"context"`
		}
		if err := json.Unmarshal(v, &body); err != nil {
			return err
		}
		*r = NewActivateContext(body.ID, body.Context)
		return nil
	}
	if v, ok := raw["Complete"]; ok {
		var id Indice
		if err := json.Unmarshal(v, &id); err != nil {
			return err
		}
		*r = NewComplete(id)
		return nil
	}
	if v, ok := raw["Context"]; ok {
		var id Indice
		if err := json.Unmarshal(v, &id); err != nil {
			return err
		}
		*r = NewContext(id)
		return nil
	}
	if v, ok := raw["Quit"]; ok {
		var id Indice
		if err := json.Unmarshal(v, &id); err != nil {
			return err
		}
		*r = NewQuit(id)
		return nil
	}
	if v, ok := raw["Exit"]; ok {
		_ = v
		*r = NewExit()
		return nil
	}

	return fmt.Errorf("request: unrecognized variant in %s", string(data))
}

func (k RequestKind) String() string {
	switch k {
	case RequestSearch:
		return "Search"
	case RequestInterrupt:
		return "Interrupt"
	case RequestActivate:
		return "Activate"
	case RequestActivateContext:
		return "ActivateContext"
	case RequestComplete:
		return "Complete"
	case RequestContext:
		return "Context"
	case RequestQuit:
		return "Quit"
	case RequestExit:
		return "Exit"
	default:
		return fmt.Sprintf("RequestKind(%d)", int(k))
	}
}
