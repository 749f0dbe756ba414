package orchestrator

import (
	"testing"

	"github.com/kestrel-run/kestrel/internal/launcher/descriptor"
	"github.com/kestrel-run/kestrel/internal/launcher/plugin"
	"github.com/kestrel-run/kestrel/internal/launcher/wire"
)

func TestTruncationLimit(t *testing.T) {
	cases := map[string]int{
		"firefox":   8,
		"":          8,
		"/home/eve": 100,
		"~/dev":     100,
	}
	for query, want := range cases {
		if got := TruncationLimit(query); got != want {
			t.Errorf("TruncationLimit(%q) = %d, want %d", query, got, want)
		}
	}
}

func TestDamerauLevenshteinKnownDistances(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "abc", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"ab", "ba", 1}, // transposition
	}
	for _, c := range cases {
		if got := damerauLevenshtein(c.a, c.b); got != c.want {
			t.Errorf("damerauLevenshtein(%q, %q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestMergeExactMatchOutranksSubstring(t *testing.T) {
	r := plugin.NewRegistry()
	key, _ := r.Register(&descriptor.Descriptor{Name: "files"}, nil)

	fragments := []Fragment{
		{Key: key, Result: wire.PluginSearchResult{ID: 0, Name: "Firefox Developer Edition"}},
		{Key: key, Result: wire.PluginSearchResult{ID: 1, Name: "Firefox"}},
	}

	results, _ := Merge("Firefox", fragments, r)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Name != "Firefox" {
		t.Fatalf("exact match should rank first, got %q then %q", results[0].Name, results[1].Name)
	}
}

func TestMergeStableTiesByNameLength(t *testing.T) {
	r := plugin.NewRegistry()
	key, _ := r.Register(&descriptor.Descriptor{Name: "general"}, nil)

	fragments := []Fragment{
		{Key: key, Result: wire.PluginSearchResult{ID: 0, Name: "Longer App Name"}},
		{Key: key, Result: wire.PluginSearchResult{ID: 1, Name: "App"}},
	}

	results, _ := Merge("", fragments, r)
	if results[0].Name != "App" {
		t.Fatalf("with no query every weight ties at 0; shorter name should sort first, got order %v", names(results))
	}
}

func TestMergeNoSortFragmentsKeepEmissionOrderAndLeadTheList(t *testing.T) {
	r := plugin.NewRegistry()
	calcKey, _ := r.Register(&descriptor.Descriptor{Name: "calc", NoSort: true}, nil)
	filesKey, _ := r.Register(&descriptor.Descriptor{Name: "files"}, nil)

	fragments := []Fragment{
		{Key: filesKey, Result: wire.PluginSearchResult{ID: 0, Name: "4 Pictures"}},
		{Key: calcKey, Result: wire.PluginSearchResult{ID: 0, Name: "= 4"}},
	}

	results, _ := Merge("4", fragments, r)
	if results[0].Name != "= 4" {
		t.Fatalf("no_sort fragment should lead the merged list regardless of weight, got order %v", names(results))
	}
}

func TestMergeTruncatesToLimit(t *testing.T) {
	r := plugin.NewRegistry()
	key, _ := r.Register(&descriptor.Descriptor{Name: "general"}, nil)

	var fragments []Fragment
	for i := 0; i < 20; i++ {
		fragments = append(fragments, Fragment{Key: key, Result: wire.PluginSearchResult{ID: wire.Indice(i), Name: "entry"}})
	}

	results, mapping := Merge("entry", fragments, r)
	if len(results) != 8 {
		t.Fatalf("expected truncation to 8 for a non-path query, got %d", len(results))
	}
	if len(mapping) != 8 {
		t.Fatalf("mapping length should match results length, got %d", len(mapping))
	}
}

func TestMergeWindowResultsPartitionToFront(t *testing.T) {
	r := plugin.NewRegistry()
	key, _ := r.Register(&descriptor.Descriptor{Name: "windows"}, nil)

	w := [2]uint32{1, 2}
	fragments := []Fragment{
		{Key: key, Result: wire.PluginSearchResult{ID: 0, Name: "aaa"}},
		{Key: key, Result: wire.PluginSearchResult{ID: 1, Name: "zzz", Window: &w}},
	}

	results, _ := Merge("", fragments, r)
	if results[0].Name != "zzz" {
		t.Fatalf("window-referencing result should be partitioned to the front, got order %v", names(results))
	}
}

func TestMergeIDMappingReversesToPluginLocalID(t *testing.T) {
	r := plugin.NewRegistry()
	filesKey, _ := r.Register(&descriptor.Descriptor{Name: "files"}, nil)

	fragments := []Fragment{
		{Key: filesKey, Result: wire.PluginSearchResult{ID: 42, Name: "doc.txt", Exec: "/usr/bin/xdg-open"}},
	}

	results, mapping := Merge("doc", fragments, r)
	if len(results) != 1 || results[0].ID != 0 {
		t.Fatalf("frontend ID should be renumbered starting at 0, got %+v", results)
	}
	if mapping[0].Key != filesKey || mapping[0].LocalID != 42 {
		t.Fatalf("mapping[0] should reverse to (key=%d, local=42), got %+v", filesKey, mapping[0])
	}
}

func names(results []wire.SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Name
	}
	return out
}
