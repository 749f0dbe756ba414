package plugin

import (
	"context"
	"strings"

	"github.com/kestrel-run/kestrel/internal/launcher/wire"
)

// HelpPluginName is the descriptor name under which the internal help
// plugin is always registered (spec §4.5).
const HelpPluginName = "help"

// helpHandler is the in-process Handler backing the internal help plugin:
// on every search it lists the other registered plugins' name, description
// and help text as search results, filtered by the query text. Requests
// are dispatched to it serially by Run, so it needs no locking of its own.
type helpHandler struct {
	registry *Registry
	out      func(wire.PluginResponse)

	// lastEntries is the most recent Search's result list, indexed by the
	// local id each entry was emitted with, so Complete can look up the
	// full help text for a catalog entry (spec §4.5, SPEC_FULL.md §B
	// "Fill" preview).
	lastEntries []Help
}

// NewHelpHandler builds the help plugin's Handler. For each Search request
// emit receives a Clear, one Append per matching plugin in registry order,
// and a Finished.
func NewHelpHandler(registry *Registry, emit func(wire.PluginResponse)) Handler {
	return &helpHandler{registry: registry, out: emit}
}

func (h *helpHandler) Name() string { return HelpPluginName }

func (h *helpHandler) Search(ctx context.Context, query string) {
	h.out(wire.NewClearResponse())
	h.lastEntries = nil

	needle := strings.ToLower(strings.TrimSpace(query))
	var id wire.Indice
	for _, entry := range h.registry.Details() {
		if entry.Name == HelpPluginName {
			continue
		}
		if needle != "" && !matchesHelp(entry, needle) {
			continue
		}

		desc := entry.Description
		if entry.HelpText != "" {
			if desc != "" {
				desc += " — "
			}
			desc += entry.HelpText
		}

		icon := wire.NewIconName("help-about")
		h.out(wire.NewAppendResponse(wire.PluginSearchResult{
			ID:          id,
			Name:        entry.Name,
			Description: desc,
			Exec:        entry.Name,
			Icon:        &icon,
		}))
		h.lastEntries = append(h.lastEntries, entry)
		id++
	}

	h.out(wire.NewFinishedResponse())
}

func matchesHelp(h Help, needle string) bool {
	return strings.Contains(strings.ToLower(h.Name), needle) ||
		strings.Contains(strings.ToLower(h.Description), needle) ||
		strings.Contains(strings.ToLower(h.HelpText), needle)
}

// Activate has no side effect beyond closing the results list: a catalog
// entry names a plugin, it is not itself something to exec.
func (h *helpHandler) Activate(ctx context.Context, id wire.Indice) {
	h.out(wire.NewPluginCloseResponse())
}

func (h *helpHandler) ActivateContext(ctx context.Context, id, context wire.Indice) {}

// Complete emits the full help text for one catalog entry as a Fill
// response: the same description and help text as the search result,
// set as separate paragraphs for a frontend's preview.
func (h *helpHandler) Complete(ctx context.Context, id wire.Indice) {
	if int(id) < 0 || int(id) >= len(h.lastEntries) {
		return
	}
	entry := h.lastEntries[id]
	text := entry.Description
	if entry.HelpText != "" {
		if text != "" {
			text += "\n\n"
		}
		text += entry.HelpText
	}
	h.out(wire.NewPluginFillResponse(text))
}
func (h *helpHandler) Context(ctx context.Context, id wire.Indice) {
	h.out(wire.NewPluginContextResponse(id, nil))
}
func (h *helpHandler) Quit(ctx context.Context, id wire.Indice) {}
func (h *helpHandler) Interrupt(ctx context.Context)            {}
func (h *helpHandler) Exit()                                    {}
