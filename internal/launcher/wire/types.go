package wire

// Indice is a 32-bit identifier. It is scoped: a plugin-local Indice
// identifies a result inside one plugin's fragment, while a frontend-visible
// Indice identifies an entry in the most recently emitted Update list.
type Indice = uint32

// Generation pairs with an Indice to address windows whose IDs may be reused.
type Generation = uint32

// GpuPreference selects which GPU a desktop entry should be launched on.
type GpuPreference string

const (
	GpuDefault    GpuPreference = "Default"
	GpuNonDefault GpuPreference = "NonDefault"
)

// ContextOption is one entry of a Context response's options list.
type ContextOption struct {
	ID   Indice `json:"id"`
	Name string `json:"name"`
}

// IconSource identifies an icon by name, mime type, or window entity.
//
// On the wire it is a single-key object: {"Name":"..."}, {"Mime":"..."},
// or {"Window":[generation,indice]}.
type IconSource struct {
	Name   string            `json:"-"`
	Mime   string            `json:"-"`
	Window *[2]Generation    `json:"-"`
	kind   iconKind
}

type iconKind int

const (
	iconKindNone iconKind = iota
	iconKindName
	iconKindMime
	iconKindWindow
)

func NewIconName(name string) IconSource { return IconSource{Name: name, kind: iconKindName} }
func NewIconMime(mime string) IconSource { return IconSource{Mime: mime, kind: iconKindMime} }
func NewIconWindow(gen, indice uint32) IconSource {
	w := [2]Generation{gen, indice}
	return IconSource{Window: &w, kind: iconKindWindow}
}

func (i IconSource) IsZero() bool { return i.kind == iconKindNone }

// DesktopEntryPayload is the body of a DesktopEntry response/PluginResponse.
type DesktopEntryPayload struct {
	Path           string        `json:"path"`
	GpuPreference  GpuPreference `json:"gpu_preference"`
}

// ContextPayload is the body of a Context response/PluginResponse.
type ContextPayload struct {
	ID      Indice          `json:"id"`
	Options []ContextOption `json:"options"`
}

// PluginSearchResult is a single result contributed by a plugin during a search.
type PluginSearchResult struct {
	ID          Indice      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Keywords    []string    `json:"keywords,omitempty"`
	Icon        *IconSource `json:"icon,omitempty"`
	Exec        string      `json:"exec,omitempty"`
	Window      *[2]uint32  `json:"window,omitempty"`
}

// SearchResult is a single entry of an Update response sent to the frontend.
type SearchResult struct {
	ID           Indice      `json:"id"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Icon         *IconSource `json:"icon,omitempty"`
	CategoryIcon *IconSource `json:"category_icon,omitempty"`
	Window       *[2]uint32  `json:"window,omitempty"`
}
