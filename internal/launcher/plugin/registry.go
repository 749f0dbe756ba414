package plugin

import (
	"sync"

	"github.com/kestrel-run/kestrel/internal/launcher/descriptor"
)

// Registry is the stable-keyed slab of connectors (spec §3 "plugins").
// Keys are assigned in registration order starting at 0 and are never
// reused or removed — a plugin that crashes keeps its key and simply
// loses its cached sink (Connector.DropSender), it is never deregistered.
type Registry struct {
	mu         sync.RWMutex
	connectors []*Connector
	byName     map[string]Key
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Key)}
}

// Register adds a new connector for d, returning its Key. If a connector
// with the same name already exists, Register discards d and returns the
// existing connector's key with ok=false (spec §4.2: "duplicate names are
// discarded in favor of whichever descriptor was registered first").
func (r *Registry) Register(d *descriptor.Descriptor, factory InstanceFactory) (key Key, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, dup := r.byName[d.Name]; dup {
		return existing, false
	}

	key = Key(len(r.connectors))
	c := NewConnector(key, d, factory)
	r.connectors = append(r.connectors, c)
	r.byName[d.Name] = key
	return key, true
}

// Get returns the connector for key, if any.
func (r *Registry) Get(key Key) (*Connector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(key) < 0 || int(key) >= len(r.connectors) {
		return nil, false
	}
	return r.connectors[key], true
}

// Lookup returns the connector registered under name, if any.
func (r *Registry) Lookup(name string) (*Connector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.connectors[key], true
}

// Keys returns every registered key, in registration order.
func (r *Registry) Keys() []Key {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]Key, len(r.connectors))
	for i := range r.connectors {
		keys[i] = Key(i)
	}
	return keys
}

// Range calls fn for every connector in registration order, stopping
// early if fn returns false.
func (r *Registry) Range(fn func(Key, *Connector) bool) {
	r.mu.RLock()
	snapshot := append([]*Connector(nil), r.connectors...)
	r.mu.RUnlock()

	for _, c := range snapshot {
		if !fn(c.Key, c) {
			return
		}
	}
}

// Details snapshots every registered plugin's help metadata, in
// registration order, for the internal help plugin's catalog (spec §4.5).
func (r *Registry) Details() []Help {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Help, 0, len(r.connectors))
	for _, c := range r.connectors {
		out = append(out, c.Details())
	}
	return out
}

// Len returns the number of registered plugins.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connectors)
}
