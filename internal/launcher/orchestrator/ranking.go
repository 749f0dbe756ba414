package orchestrator

import (
	"sort"
	"strings"

	"github.com/kestrel-run/kestrel/internal/launcher/plugin"
	"github.com/kestrel-run/kestrel/internal/launcher/wire"
)

// Fragment is one plugin's contribution awaiting merge into the next
// Update, tagged with the plugin that produced it so the merged result's
// IDs can be remapped back to plugin-local Activate/Complete/Context/Quit
// calls (spec §4.7).
type Fragment struct {
	Key    plugin.Key
	Result wire.PluginSearchResult
}

// IDMapping reverses one frontend-visible Indice back to the plugin that
// produced it and that plugin's own local Indice for the same result
// (spec §4.7 "ID remap").
type IDMapping struct {
	Key     plugin.Key
	LocalID wire.Indice

	// Name and Exec are carried along for the recent plugin (spec C.2 of
	// SPEC_FULL.md): recording an activation needs the exec string, which
	// the frontend-facing SearchResult deliberately drops.
	Name string
	Exec string
}

// TruncationLimit returns how many merged results an Update may carry.
// Queries that look like filesystem paths get a larger budget, since a
// path search is expected to enumerate many plausible completions (spec
// §4.7 "truncation: 8 results, or 100 for a query starting with / or ~").
func TruncationLimit(query string) int {
	if strings.HasPrefix(query, "/") || strings.HasPrefix(query, "~") {
		return 100
	}
	return 8
}

// weight scores how well a single PluginSearchResult matches query: lower
// is better, and 0 is a perfect match. This mirrors calculate_weight in
// original_source/service/src/lib.rs exactly:
//
//  - name starts with query: 0
//  - name contains query (but doesn't start with it): 1
//  - otherwise: the smaller of the Damerau-Levenshtein distance from query
//    to name and from query to description, further lowered to 1 by any
//    keyword that starts with or contains query, or to
//    min(w, edit_distance(query, keyword)+1) otherwise
//  - independently, if exec contains query: lowered to 2 if exec starts
//    with query, else to the edit distance from query to exec
//
// Merge sorts ascending by (weight, name length), so 0 always sorts first.
func weight(query string, r wire.PluginSearchResult) int {
	q := strings.ToLower(query)
	name := strings.ToLower(r.Name)
	description := strings.ToLower(r.Description)
	exec := strings.ToLower(r.Exec)

	w := 0
	if !strings.HasPrefix(name, q) {
		w = 1
		if !strings.Contains(name, q) {
			w = min(damerauLevenshtein(name, q), damerauLevenshtein(description, q))
			for _, kw := range r.Keywords {
				kw = strings.ToLower(kw)
				if strings.HasPrefix(kw, q) || strings.Contains(kw, q) {
					w = min(w, 1)
				} else {
					w = min(w, damerauLevenshtein(q, kw)+1)
				}
			}
		}
	}

	if strings.Contains(exec, q) {
		if strings.HasPrefix(exec, q) {
			w = min(w, 2)
		} else {
			w = min(w, damerauLevenshtein(q, exec))
		}
	}

	return w
}

// damerauLevenshtein computes the Damerau-Levenshtein edit distance
// (insertions, deletions, substitutions, and adjacent transpositions)
// between a and b. No corpus library implements this; it is a small,
// well-known textbook algorithm, not a domain concern worth a dependency
// (documented in the grounding ledger as a deliberate stdlib exception).
func damerauLevenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)

	d := make([][]int, la+2)
	for i := range d {
		d[i] = make([]int, lb+2)
	}

	maxDist := la + lb
	d[0][0] = maxDist
	for i := 0; i <= la; i++ {
		d[i+1][0] = maxDist
		d[i+1][1] = i
	}
	for j := 0; j <= lb; j++ {
		d[0][j+1] = maxDist
		d[1][j+1] = j
	}

	lastRow := make(map[rune]int)
	for i := 1; i <= la; i++ {
		lastCol := 0
		for j := 1; j <= lb; j++ {
			i2 := lastRow[rb[j-1]]
			j2 := lastCol
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
				lastCol = j
			}

			del := d[i][j+1] + 1
			ins := d[i+1][j] + 1
			sub := d[i][j] + cost
			trans := d[i2][j2] + (i-i2-1) + 1 + (j-j2-1)

			best := del
			if ins < best {
				best = ins
			}
			if sub < best {
				best = sub
			}
			if trans < best {
				best = trans
			}
			d[i+1][j+1] = best
		}
		lastRow[ra[i-1]] = i
	}

	return d[la+1][lb+1]
}

// Merge combines every plugin's fragments for the current search into the
// frontend-facing Update payload, per spec §4.7:
//
//  1. Fragments from a NoSort plugin keep their emission order and are
//     placed ahead of ranked results (spec §4.7 "no_sort bypasses ranking").
//  2. The remaining fragments are scored by weight and stable-sorted by
//     (weight ascending, name length ascending) so closer matches sort
//     first and ties preserve the active_search emission order (spec §8
//     testable property).
//  3. The combined list is truncated to TruncationLimit(query).
//  4. Results that reference a window are partitioned to the front,
//     preserving relative order (spec §4.7 "window-first partition").
//  5. IDs are renumbered 0..N-1; the returned mapping lets the
//     orchestrator translate a frontend Activate/Complete/Context/Quit ID
//     back to (plugin key, plugin-local ID).
func Merge(query string, fragments []Fragment, registry *plugin.Registry) ([]wire.SearchResult, []IDMapping) {
	var noSort, ranked []Fragment
	for _, f := range fragments {
		if c, ok := registry.Get(f.Key); ok && c.Descriptor.NoSort {
			noSort = append(noSort, f)
		} else {
			ranked = append(ranked, f)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		wi, wj := weight(query, ranked[i].Result), weight(query, ranked[j].Result)
		if wi != wj {
			return wi < wj
		}
		return len(ranked[i].Result.Name) < len(ranked[j].Result.Name)
	})

	combined := append(append([]Fragment(nil), noSort...), ranked...)

	limit := TruncationLimit(query)
	if len(combined) > limit {
		combined = combined[:limit]
	}

	var windowed, rest []Fragment
	for _, f := range combined {
		if f.Result.Window != nil {
			windowed = append(windowed, f)
		} else {
			rest = append(rest, f)
		}
	}
	combined = append(windowed, rest...)

	results := make([]wire.SearchResult, 0, len(combined))
	mapping := make([]IDMapping, 0, len(combined))
	for i, f := range combined {
		id := wire.Indice(i)
		results = append(results, wire.SearchResult{
			ID:          id,
			Name:        f.Result.Name,
			Description: f.Result.Description,
			Icon:        f.Result.Icon,
			Window:      f.Result.Window,
		})
		mapping = append(mapping, IDMapping{Key: f.Key, LocalID: f.Result.ID, Name: f.Result.Name, Exec: f.Result.Exec})
	}

	return results, mapping
}
