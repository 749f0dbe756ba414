package orchestrator

import (
	"reflect"
	"testing"

	"github.com/kestrel-run/kestrel/internal/launcher/descriptor"
	"github.com/kestrel-run/kestrel/internal/launcher/plugin"
)

func TestSelectTargetsEmptyQueryOnlyPersistent(t *testing.T) {
	r := plugin.NewRegistry()
	r.Register(&descriptor.Descriptor{Name: "general"}, nil)
	r.Register(&descriptor.Descriptor{Name: "recent", Persistent: true}, nil)

	targets := SelectTargets(r, "")
	if len(targets) != 1 {
		t.Fatalf("expected exactly 1 persistent target, got %d", len(targets))
	}
	c, _ := r.Get(targets[0])
	if c.Descriptor.Name != "recent" {
		t.Fatalf("expected the persistent plugin, got %s", c.Descriptor.Name)
	}
}

func TestSelectTargetsNonEmptyQueryMatchesTrigger(t *testing.T) {
	r := plugin.NewRegistry()
	filesRe, err := descriptor.CompileTrigger(`^/`)
	if err != nil {
		t.Fatalf("CompileTrigger: %v", err)
	}
	r.Register(&descriptor.Descriptor{Name: "general"}, nil)
	r.Register(&descriptor.Descriptor{Name: "files", TriggerRegex: filesRe}, nil)

	targets := SelectTargets(r, "/home")
	if len(targets) != 2 {
		t.Fatalf("expected both plugins targeted for /home, got %d", len(targets))
	}

	targets = SelectTargets(r, "firefox")
	if len(targets) != 1 {
		t.Fatalf("expected only the untriggered plugin for firefox, got %d", len(targets))
	}
	c, _ := r.Get(targets[0])
	if c.Descriptor.Name != "general" {
		t.Fatalf("expected 'general' to remain targeted, got %s", c.Descriptor.Name)
	}
}

func TestSelectTargetsIsolateReplacesSet(t *testing.T) {
	r := plugin.NewRegistry()
	calcRe, err := descriptor.CompileTrigger(`^=`)
	if err != nil {
		t.Fatalf("CompileTrigger: %v", err)
	}
	r.Register(&descriptor.Descriptor{Name: "general"}, nil)
	r.Register(&descriptor.Descriptor{Name: "calc", TriggerRegex: calcRe, Isolate: true}, nil)
	r.Register(&descriptor.Descriptor{Name: "files"}, nil)

	targets := SelectTargets(r, "=1+1")
	if len(targets) != 1 {
		t.Fatalf("isolate plugin should exclude every other target, got %d", len(targets))
	}
	c, _ := r.Get(targets[0])
	if c.Descriptor.Name != "calc" {
		t.Fatalf("expected only 'calc' targeted, got %s", c.Descriptor.Name)
	}
}

func TestSelectTargetsOrderIsRegistrationOrder(t *testing.T) {
	r := plugin.NewRegistry()
	names := []string{"a", "b", "c"}
	for _, n := range names {
		r.Register(&descriptor.Descriptor{Name: n, Persistent: true}, nil)
	}

	targets := SelectTargets(r, "")
	var got []string
	for _, k := range targets {
		c, _ := r.Get(k)
		got = append(got, c.Descriptor.Name)
	}
	if !reflect.DeepEqual(got, names) {
		t.Fatalf("targets = %v, want registration order %v", got, names)
	}
}
