// Package plugin implements the plugin registry and connector contract
// (spec §3 "PluginConnector", §4.3) shared by external (subprocess) and
// internal (in-process) plugins, plus the two built-in internal plugins:
// help (spec §4.5) and recent (spec §C.2 of SPEC_FULL.md).
package plugin

import (
	"context"

	"github.com/kestrel-run/kestrel/internal/launcher/descriptor"
	"github.com/kestrel-run/kestrel/internal/launcher/wire"
)

// Key stably identifies a registered plugin for the lifetime of the
// service. Keys are assigned in registration order and are never reused
// (spec §3 "plugins: stable-keyed slab of connectors").
type Key int

// ResponseEnvelope is what any running plugin instance — external or
// internal — sends back towards the orchestrator's event loop.
type ResponseEnvelope struct {
	Key      Key
	Response wire.PluginResponse
}

// ExitNotice reports that the instance behind Key has terminated, so the
// orchestrator can drop the connector's stale sink (spec §4.6 "PluginExit").
type ExitNotice struct {
	Key Key
}

// InstanceFactory starts a fresh plugin instance and returns the send end
// of its request channel. It must be idempotent and free of observable
// side effects if its product is dropped unused (spec §9).
type InstanceFactory func() chan<- wire.Request

// Help is a snapshot of one plugin's help metadata (spec §3 "PluginHelp").
type Help struct {
	Name        string
	Description string
	HelpText    string // empty means this plugin has no help entry
}

// Handler is implemented by in-process plugins (help, recent). Its
// methods mirror the plugin-side Request handling contract in spec §4
// ("Plugin runtime contract"); Run dispatches incoming requests to it one
// at a time, in arrival order, exactly like the external supervisor does
// for subprocess plugins.
type Handler interface {
	Name() string
	Search(ctx context.Context, query string)
	Activate(ctx context.Context, id wire.Indice)
	ActivateContext(ctx context.Context, id, context wire.Indice)
	Complete(ctx context.Context, id wire.Indice)
	Context(ctx context.Context, id wire.Indice)
	Quit(ctx context.Context, id wire.Indice)
	Interrupt(ctx context.Context)
	Exit()
}

// Run drives an in-process Handler's request/response lifecycle: it reads
// from reqCh until it closes, ctx is canceled or a Request_Exit arrives,
// dispatching each request to h. The handler emits its own responses
// through the callback it was built with; Run itself only sends a
// Finished envelope tagged with key to out when it returns, and drops that
// envelope if out is full. This is the in-process analogue of the external
// supervisor's subprocess pipe (spec §4 "plugin runtime contract").
func Run(ctx context.Context, key Key, reqCh <-chan wire.Request, out chan<- ResponseEnvelope, h Handler) {
	defer func() {
		select {
		case out <- ResponseEnvelope{Key: key, Response: wire.NewFinishedResponse()}:
		default:
		}
	}()

	for {
		select {
		case <-ctx.Done():
			h.Exit()
			return

		case req, ok := <-reqCh:
			if !ok {
				h.Exit()
				return
			}

			switch req.Kind {
			case wire.RequestSearch:
				h.Search(ctx, req.Query)
			case wire.RequestInterrupt:
				h.Interrupt(ctx)
			case wire.RequestActivate:
				h.Activate(ctx, req.ID)
			case wire.RequestActivateContext:
				h.ActivateContext(ctx, req.ID, req.ContextID)
			case wire.RequestComplete:
				h.Complete(ctx, req.ID)
			case wire.RequestContext:
				h.Context(ctx, req.ID)
			case wire.RequestQuit:
				h.Quit(ctx, req.ID)
			case wire.RequestExit:
				h.Exit()
				return
			}
		}
	}
}

// InternalFactory returns an InstanceFactory that spawns h's Run loop in a
// fresh goroutine on every invocation, exactly as the external supervisor
// spawns a fresh subprocess (spec §9 "Lazy plugin (re)spawn").
func InternalFactory(ctx context.Context, key Key, out chan<- ResponseEnvelope, newHandler func() Handler) InstanceFactory {
	return func() chan<- wire.Request {
		reqCh := make(chan wire.Request, 8)
		go Run(ctx, key, reqCh, out, newHandler())
		return reqCh
	}
}

// descriptorHelp converts a Descriptor into its Help snapshot.
func descriptorHelp(d *descriptor.Descriptor) Help {
	return Help{Name: d.Name, Description: d.Description, HelpText: d.Help}
}
