package orchestrator

import "github.com/kestrel-run/kestrel/internal/launcher/plugin"

// SelectTargets computes which registered plugins should receive a Search
// for query, in registration order (spec §4.6.1 "target plugin selection"):
//
//   - Every plugin's trigger is tested against query, empty or not; a
//     plugin whose trigger doesn't match is skipped.
//   - For an empty query, a matching plugin is only selected if it is
//     also Persistent.
//   - The first matching Isolate plugin replaces the whole target set and
//     selection stops there — an isolate plugin is never combined with any
//     other plugin's results (spec §3 invariant, §4.6.1 "isolate exclusivity").
func SelectTargets(registry *plugin.Registry, query string) []plugin.Key {
	var targets []plugin.Key

	registry.Range(func(key plugin.Key, c *plugin.Connector) bool {
		d := c.Descriptor

		if !d.Matches(query) {
			return true
		}

		if query == "" && !d.Persistent {
			return true
		}

		if d.Isolate {
			targets = []plugin.Key{key}
			return false
		}

		targets = append(targets, key)
		return true
	})

	return targets
}
