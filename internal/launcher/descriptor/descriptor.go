// Package descriptor holds plugin metadata (spec §3 "PluginDescriptor")
// and the disk-discovery producer that feeds it to the orchestrator
// (spec §9 "streaming iteration of plugin discovery").
package descriptor

import (
	"regexp"

	"github.com/kestrel-run/kestrel/internal/launcher/wire"
)

// Icon is an alias for wire.IconSource, so a descriptor's icon is already
// in wire form and needs no conversion at registration.
type Icon = wire.IconSource

// Descriptor is the immutable metadata for one plugin (spec §3). Once
// registered with the orchestrator, a Descriptor never changes.
type Descriptor struct {
	// Name is non-empty and unique; duplicate names are discarded in
	// favor of whichever descriptor was registered first (spec §4.2).
	Name string

	Description string

	// Help, if set, is surfaced by the internal help plugin.
	Help string

	// Exec is the absolute or source-relative path to the plugin
	// executable. Empty for internal (in-process) plugins.
	Exec string

	// Args are passed to Exec on every (re)spawn.
	Args []string

	Icon *Icon

	// TriggerRegex gates whether a query is forwarded to this plugin.
	// Nil means "always eligible" (subject to Persistent / Isolate).
	TriggerRegex *regexp.Regexp

	// Isolate: when true and TriggerRegex matches, this plugin is the
	// only one consulted for that search (spec §3 invariant 5, §4.6.1).
	Isolate bool

	// Persistent: consulted even when the query is empty (spec §4.6.1).
	Persistent bool

	// NoSort: this plugin's fragment bypasses ranking and keeps emission
	// order (spec §4.7).
	NoSort bool
}

// Matches reports whether this descriptor's trigger allows query q.
// A nil TriggerRegex never excludes a query; a trigger that failed to
// compile is installed as NeverMatch and excludes every query.
func (d *Descriptor) Matches(q string) bool {
	if d.TriggerRegex == nil {
		return true
	}
	return d.TriggerRegex.MatchString(q)
}

// CompileTrigger compiles pattern into a TriggerRegex. A compile failure
// is not fatal to registration (spec §4.2, §7): the descriptor is
// registered anyway but matched against no query, i.e. TriggerRegex is
// left nil only if pattern is empty; on a genuine compile error, the
// caller should install NeverMatch() instead.
func CompileTrigger(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	return regexp.Compile(pattern)
}

// neverMatchPattern never matches any input, including the empty string;
// used when a configured trigger regex fails to compile, per spec §4.2 /
// §7 ("Regex compile failure ... Register plugin as never-matching").
const neverMatchPattern = `[^\s\S]`

// NeverMatch returns a compiled regex that matches no string.
func NeverMatch() *regexp.Regexp {
	return regexp.MustCompile(neverMatchPattern)
}
