package supervisor

import (
	"context"
	"testing"
	"time"

	"github.com/kestrel-run/kestrel/internal/launcher/descriptor"
	"github.com/kestrel-run/kestrel/internal/launcher/plugin"
	"github.com/kestrel-run/kestrel/internal/launcher/wire"
)

// fakePluginScript is a tiny shell "plugin" standing in for a real
// subprocess: it ignores its stdin and emits a fixed PluginResponse
// sequence, matching the wire protocol's line-delimited JSON shape
// (spec §4.1), then exits cleanly.
const fakePluginScript = `#!/bin/sh
printf '"Clear"\n'
printf '{"Append":{"id":0,"name":"hello","description":"","exec":""}}\n'
printf '"Finished"\n'
`

func writeFakePlugin(t *testing.T) string {
	t.Helper()
	path := t.TempDir() + "/fakeplugin.sh"
	if err := writeExecutable(path, fakePluginScript); err != nil {
		t.Fatalf("write fake plugin: %v", err)
	}
	return path
}

func TestFactorySpawnsAndForwardsResponses(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := &descriptor.Descriptor{Name: "fake", Exec: writeFakePlugin(t)}

	out := make(chan plugin.ResponseEnvelope, 8)
	exits := make(chan plugin.ExitNotice, 1)

	factory := Factory(ctx, 3, d, out, exits)
	sink := factory()
	sink <- wire.NewSearch("anything")

	var kinds []wire.PluginResponseKind
	timeout := time.After(5 * time.Second)
	for len(kinds) < 3 {
		select {
		case env := <-out:
			if env.Key != 3 {
				t.Fatalf("envelope key = %d, want 3", env.Key)
			}
			kinds = append(kinds, env.Response.Kind)
		case <-timeout:
			t.Fatalf("timed out waiting for responses, got %v so far", kinds)
		}
	}

	want := []wire.PluginResponseKind{wire.PluginResponseClear, wire.PluginResponseAppend, wire.PluginResponseFinished}
	for i, k := range want {
		if kinds[i] != k {
			t.Fatalf("response[%d] = %v, want %v", i, kinds[i], k)
		}
	}

	select {
	case <-exits:
	case <-time.After(5 * time.Second):
		t.Fatalf("expected an ExitNotice after the subprocess exits")
	}
}
