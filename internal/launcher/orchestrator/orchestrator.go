package orchestrator

import (
	"github.com/kestrel-run/kestrel/internal/launcher/logging"
	"github.com/kestrel-run/kestrel/internal/launcher/plugin"
	"github.com/kestrel-run/kestrel/internal/launcher/wire"
)

// Run drives the orchestrator's single event loop until ctx is canceled or
// the frontend sends Request_Exit, merging three event sources exactly as
// spec §4.6 describes: frontend Requests, plugin ResponseEnvelopes, and
// plugin ExitNotices. No other goroutine touches o.state.
func (o *Orchestrator) Run() {
	for {
		select {
		case <-o.ctx.Done():
			return

		case req, ok := <-o.requests:
			if !ok {
				return
			}
			if o.handleRequest(req) {
				return
			}

		case env := <-o.responses:
			o.handleResponse(env)

		case exit := <-o.exits:
			o.handleExit(exit)
		}
	}
}

// handleRequest dispatches one frontend Request. It returns true when the
// orchestrator should shut down (Request_Exit).
func (o *Orchestrator) handleRequest(req wire.Request) bool {
	switch req.Kind {
	case wire.RequestSearch:
		o.onSearch(req.Query)

	case wire.RequestInterrupt:
		o.onInterrupt()

	case wire.RequestActivate:
		o.onActivate(req.ID)

	case wire.RequestActivateContext:
		o.onActivateContext(req.ID, req.ContextID)

	case wire.RequestComplete:
		o.onComplete(req.ID)

	case wire.RequestContext:
		o.onContext(req.ID)

	case wire.RequestQuit:
		o.onQuit(req.ID)

	case wire.RequestExit:
		o.onExit()
		return true
	}
	return false
}

// onSearch starts a new search generation, or — if one is already in
// flight — schedules query as a replay and interrupts the plugins still
// being awaited (spec §3 invariant 5, §4.6.1).
func (o *Orchestrator) onSearch(query string) {
	if len(o.state.awaiting) > 0 {
		o.state.searchScheduled = &query
		o.interruptAwaiting()
		return
	}
	o.startSearch(query)
}

// onInterrupt handles an explicit Interrupt request: it broadcasts
// Interrupt to every plugin with a live sink, not just the ones still
// being awaited for the current search, and does not touch any pending
// replay (spec §4.6 "Interrupt").
func (o *Orchestrator) onInterrupt() {
	o.registry.Range(func(_ plugin.Key, c *plugin.Connector) bool {
		if c.HasSender() {
			c.Sender() <- wire.NewInterrupt()
		}
		return true
	})
}

// interruptAwaiting sends Interrupt to the plugins still being awaited for
// the in-flight search generation, used when a new Search arrives before
// the previous one has finished (spec §3 invariant 5).
func (o *Orchestrator) interruptAwaiting() {
	for key := range o.state.awaiting {
		if c, ok := o.registry.Get(key); ok && c.HasSender() {
			c.Sender() <- wire.NewInterrupt()
		}
	}
}

// startSearch begins generation N+1: it selects targets, resets the
// per-generation fragment buffer, and dispatches Search to every target.
// The previous generation's idMap is left untouched until the next Update
// is actually flushed (spec §3 invariant 2).
func (o *Orchestrator) startSearch(query string) {
	o.state.query = query
	o.state.generation++
	o.state.fragments = nil
	o.state.awaiting = make(map[plugin.Key]bool)

	targets := SelectTargets(o.registry, query)
	for _, key := range targets {
		o.state.awaiting[key] = true
	}

	if len(targets) == 0 {
		o.flushResults()
		return
	}

	for _, key := range targets {
		c, ok := o.registry.Get(key)
		if !ok {
			delete(o.state.awaiting, key)
			continue
		}
		c.Sender() <- wire.NewSearch(query)
	}
}

// onActivate forwards Activate to the plugin that produced id in the last
// flushed Update, remapping the frontend-visible id to that plugin's own
// local id, and records the activation for the recent plugin (spec §4.6,
// SPEC_FULL.md §C.2).
func (o *Orchestrator) onActivate(id wire.Indice) {
	m, ok := o.lookupID(id)
	if !ok {
		return
	}

	if o.recentDB != nil {
		if err := plugin.RecordActivation(o.recentDB, m.Exec, m.Name); err != nil {
			logging.Warn("[orchestrator] recording activation: %v", err)
		}
	}

	if c, ok := o.registry.Get(m.Key); ok {
		c.Sender() <- wire.NewActivate(m.LocalID)
	}
}

func (o *Orchestrator) onActivateContext(id, context wire.Indice) {
	m, ok := o.lookupID(id)
	if !ok {
		return
	}
	if c, ok := o.registry.Get(m.Key); ok {
		c.Sender() <- wire.NewActivateContext(m.LocalID, context)
	}
}

// onComplete forwards Complete to the owning plugin; its Fill reply is
// relayed to the frontend directly from handleResponse, with no ID
// remapping involved (spec §4.6).
func (o *Orchestrator) onComplete(id wire.Indice) {
	m, ok := o.lookupID(id)
	if !ok {
		return
	}
	if c, ok := o.registry.Get(m.Key); ok {
		c.Sender() <- wire.NewComplete(m.LocalID)
	}
}

// onContext forwards Context to the owning plugin, remembering which
// frontend id this request was for so the eventual PluginResponseContext
// reply — which only carries a plugin-local id — can be re-tagged with
// the id the frontend actually asked about.
func (o *Orchestrator) onContext(id wire.Indice) {
	m, ok := o.lookupID(id)
	if !ok {
		return
	}
	o.pendingContext[m.Key] = id
	if c, ok := o.registry.Get(m.Key); ok {
		c.Sender() <- wire.NewContext(m.LocalID)
	}
}

func (o *Orchestrator) onQuit(id wire.Indice) {
	m, ok := o.lookupID(id)
	if !ok {
		return
	}
	if c, ok := o.registry.Get(m.Key); ok {
		c.Sender() <- wire.NewQuit(m.LocalID)
	}
}

// onExit sends Request_Exit to every plugin with a live sender so each
// gets a chance to shut down gracefully before the service process itself
// exits (spec §4.4 "graceful exit via stdin close").
func (o *Orchestrator) onExit() {
	o.registry.Range(func(_ plugin.Key, c *plugin.Connector) bool {
		if c.HasSender() {
			c.Sender() <- wire.NewExit()
		}
		return true
	})
}

func (o *Orchestrator) lookupID(id wire.Indice) (IDMapping, bool) {
	if int(id) < 0 || int(id) >= len(o.state.idMap) {
		return IDMapping{}, false
	}
	return o.state.idMap[id], true
}

// handleResponse processes one PluginResponse, tagged with the plugin key
// that produced it. Responses from a plugin outside the current
// generation's awaiting set are stale and dropped (spec §3 invariant 1),
// except Close/Context/DesktopEntry/Fill, which are request/response pairs
// independent of the search generation and are relayed regardless of it
// (a Context reply only while a Context request to that plugin is pending).
func (o *Orchestrator) handleResponse(env plugin.ResponseEnvelope) {
	switch env.Response.Kind {
	case wire.PluginResponseAppend:
		if !o.state.awaiting[env.Key] {
			return
		}
		o.state.fragments = append(o.state.fragments, Fragment{Key: env.Key, Result: env.Response.Append})

	case wire.PluginResponseClear:
		if !o.state.awaiting[env.Key] {
			return
		}
		// Clear is scoped to the emitting plugin's own fragments, not the
		// whole merged set (resolved open question, see DESIGN.md).
		kept := o.state.fragments[:0]
		for _, f := range o.state.fragments {
			if f.Key != env.Key {
				kept = append(kept, f)
			}
		}
		o.state.fragments = kept

	case wire.PluginResponseFinished:
		if !o.state.awaiting[env.Key] {
			return
		}
		delete(o.state.awaiting, env.Key)
		if len(o.state.awaiting) == 0 {
			o.flushOrReplay()
		}

	case wire.PluginResponseClose:
		o.encoder.Encode(wire.NewCloseResponse())

	case wire.PluginResponseContext:
		frontendID, ok := o.pendingContext[env.Key]
		if !ok {
			return
		}
		delete(o.pendingContext, env.Key)
		o.encoder.Encode(wire.NewContextResponse(frontendID, env.Response.Context.Options))

	case wire.PluginResponseDesktopEntry:
		o.encoder.Encode(wire.NewDesktopEntryResponse(env.Response.DesktopEntry.Path, env.Response.DesktopEntry.GpuPreference))

	case wire.PluginResponseFill:
		o.encoder.Encode(wire.NewFillResponse(env.Response.Fill))
	}
}

// handleExit drops the stale sender for a plugin whose instance just
// terminated and, if it was still being awaited, treats that as an
// unclean exit that completes the wait (spec §4.4, §4.6).
func (o *Orchestrator) handleExit(exit plugin.ExitNotice) {
	if c, ok := o.registry.Get(exit.Key); ok {
		c.DropSender()
	}

	if o.state.awaiting[exit.Key] {
		delete(o.state.awaiting, exit.Key)
		if len(o.state.awaiting) == 0 {
			o.flushOrReplay()
		}
	}
}

// flushOrReplay is called whenever awaiting drains to empty: it either
// starts the scheduled replay search or flushes the merged Update (spec §3
// invariant 4).
func (o *Orchestrator) flushOrReplay() {
	if o.state.searchScheduled != nil {
		q := *o.state.searchScheduled
		o.state.searchScheduled = nil
		o.startSearch(q)
		return
	}
	o.flushResults()
}

// flushResults merges the current generation's fragments and sends the
// resulting Update to the frontend, replacing the ID mapping used by
// subsequent Activate/Complete/Context/Quit requests.
func (o *Orchestrator) flushResults() {
	results, mapping := Merge(o.state.query, o.state.fragments, o.registry)
	o.state.idMap = mapping
	if err := o.encoder.Encode(wire.NewUpdateResponse(results)); err != nil {
		logging.Error("[orchestrator] writing Update: %v", err)
	}
}
