package orchestrator

import (
	"context"

	"github.com/boltdb/bolt"

	"github.com/kestrel-run/kestrel/internal/launcher/plugin"
	"github.com/kestrel-run/kestrel/internal/launcher/wire"
)

// Orchestrator owns the single-threaded event loop described in spec §4.6:
// one goroutine (Run) is the sole mutator of state and the sole sender on
// every plugin's request sink, so no locking is needed across a search.
type Orchestrator struct {
	registry *plugin.Registry
	recentDB *bolt.DB

	responses chan plugin.ResponseEnvelope
	exits     chan plugin.ExitNotice
	requests  <-chan wire.Request
	encoder   *wire.Encoder

	ctx    context.Context
	cancel context.CancelFunc

	state state

	// pendingContext remembers which frontend-visible ID a Context
	// request was issued for, keyed by the plugin it was forwarded to, so
	// the eventual PluginResponseContext reply (carrying only the
	// plugin-local ID) can be re-tagged with the frontend ID the request
	// actually came from (spec §4.6 "Context round trip").
	pendingContext map[plugin.Key]wire.Indice
}

// state is the part of the orchestrator's bookkeeping that changes across
// the lifetime of searches (spec §3 "OrchestratorState").
//
// Invariants:
//  1. awaiting is always a subset of the plugins targeted by the current
//     search generation; a response from a plugin outside awaiting is
//     from a stale generation and is dropped.
//  2. idMap reflects the most recently flushed Update and stays valid for
//     Activate/Complete/Context/Quit until the next Update replaces it —
//     not until the next search merely starts.
//  3. searchScheduled holds at most one pending query: a Search arriving
//     while a search is already in flight overwrites it rather than
//     queuing a second one.
//  4. An Update is flushed to the frontend exactly when awaiting becomes
//     empty, unless searchScheduled is set, in which case a replay begins
//     instead of a flush.
//  5. A Search received while awaiting is non-empty sends Interrupt to
//     every still-awaiting target before any replay begins; two search
//     generations are never in flight at once.
type state struct {
	query           string
	generation      uint64
	awaiting        map[plugin.Key]bool
	fragments       []Fragment
	searchScheduled *string
	idMap           []IDMapping
}

func newState() state {
	return state{awaiting: make(map[plugin.Key]bool)}
}
