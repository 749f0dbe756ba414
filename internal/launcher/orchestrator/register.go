package orchestrator

import (
	"github.com/kestrel-run/kestrel/internal/launcher/descriptor"
	"github.com/kestrel-run/kestrel/internal/launcher/logging"
	"github.com/kestrel-run/kestrel/internal/launcher/plugin"
	"github.com/kestrel-run/kestrel/internal/launcher/supervisor"
	"github.com/kestrel-run/kestrel/internal/launcher/wire"
)

// registerExternal registers d as a subprocess-backed plugin. Because
// Registry.Register assigns keys in strict append order, the key a
// registration will receive is known before it happens, which is what
// lets supervisor.Factory tag every response with the right key from its
// very first spawn (spec §4.2, §4.4).
func (o *Orchestrator) registerExternal(d *descriptor.Descriptor) (plugin.Key, bool) {
	predicted := plugin.Key(o.registry.Len())
	factory := supervisor.Factory(o.ctx, predicted, d, o.responses, o.exits)
	key, ok := o.registry.Register(d, factory)
	if !ok {
		logging.Warn("[orchestrator] duplicate plugin name %q, keeping the first registration", d.Name)
	}
	return key, ok
}

// registerHelp registers the always-present internal help plugin (spec §4.5).
func (o *Orchestrator) registerHelp() {
	predicted := plugin.Key(o.registry.Len())
	d := &descriptor.Descriptor{
		Name:        plugin.HelpPluginName,
		Description: "Search plugin help",
		Persistent:  false,
	}

	factory := plugin.InternalFactory(o.ctx, predicted, o.responses, func() plugin.Handler {
		return plugin.NewHelpHandler(o.registry, func(r wire.PluginResponse) {
			o.responses <- plugin.ResponseEnvelope{Key: predicted, Response: r}
		})
	})
	o.registry.Register(d, factory)
}

// registerRecent registers the internal recent plugin, persistent so it
// contributes results even on an empty query (SPEC_FULL.md §C.2).
func (o *Orchestrator) registerRecent() {
	predicted := plugin.Key(o.registry.Len())
	d := &descriptor.Descriptor{
		Name:        plugin.RecentPluginName,
		Description: "Recently activated items",
		Persistent:  true,
	}

	factory := plugin.InternalFactory(o.ctx, predicted, o.responses, func() plugin.Handler {
		return plugin.NewRecentHandler(o.recentDB, func(r wire.PluginResponse) {
			o.responses <- plugin.ResponseEnvelope{Key: predicted, Response: r}
		})
	})
	o.registry.Register(d, factory)
}
