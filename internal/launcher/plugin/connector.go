package plugin

import (
	"sync"

	"github.com/kestrel-run/kestrel/internal/launcher/descriptor"
	"github.com/kestrel-run/kestrel/internal/launcher/wire"
)

// Connector is the single handle the orchestrator holds for one
// registered plugin: its immutable descriptor plus a lazily-created sink
// into a running instance (spec §3 "PluginConnector", §4.3).
//
// The orchestrator's event loop is the only goroutine that calls Sender
// and DropSender, so no locking is required there; the mutex only guards
// sink against calls from another goroutine. Details reads the immutable
// descriptor and takes no lock.
type Connector struct {
	Key        Key
	Descriptor *descriptor.Descriptor

	mu      sync.Mutex
	sink    chan<- wire.Request
	factory InstanceFactory
}

// NewConnector wires a descriptor to the factory that (re)spawns its
// instance on demand.
func NewConnector(key Key, d *descriptor.Descriptor, factory InstanceFactory) *Connector {
	return &Connector{Key: key, Descriptor: d, factory: factory}
}

// Sender returns the request sink for a running instance, spawning one via
// the factory on first use or after the previous instance exited (spec
// §4.3 "lazy (re)spawn"; §4.6.1 "target selection spawns on demand").
func (c *Connector) Sender() chan<- wire.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sink == nil {
		c.sink = c.factory()
	}
	return c.sink
}

// DropSender clears the cached sink, so the next Sender call respawns a
// fresh instance. Called by the orchestrator on PluginExit (spec §4.6).
func (c *Connector) DropSender() {
	c.mu.Lock()
	c.sink = nil
	c.mu.Unlock()
}

// HasSender reports whether an instance is currently believed to be
// running, without spawning one.
func (c *Connector) HasSender() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sink != nil
}

// Details snapshots this plugin's help metadata for the internal help
// plugin's catalog (spec §4.5).
func (c *Connector) Details() Help {
	return descriptorHelp(c.Descriptor)
}
