package client

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/kestrel-run/kestrel/internal/launcher/wire"
)

// fakeDaemonScript stands in for kestreld: it reads one line from stdin
// (ignored), then prints a fixed Update response and exits.
const fakeDaemonScript = `#!/bin/sh
read line
printf '{"Update":[{"id":0,"name":"hello","description":"","icon":null,"category_icon":null,"exec":""}]}\n'
`

func writeFakeDaemon(t *testing.T) string {
	t.Helper()
	path := t.TempDir() + "/fakedaemon.sh"
	if err := os.WriteFile(path, []byte(fakeDaemonScript), 0o755); err != nil {
		t.Fatalf("write fake daemon: %v", err)
	}
	return path
}

func TestSpawnSendsRequestAndStreamsResponse(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := Spawn(ctx, Options{Path: writeFakeDaemon(t)})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	if err := c.Search("firefox"); err != nil {
		t.Fatalf("Search: %v", err)
	}

	select {
	case resp := <-c.Stream():
		if resp.Kind != wire.ResponseUpdate {
			t.Fatalf("expected an Update response, got %v", resp.Kind)
		}
		if len(resp.Update) != 1 || resp.Update[0].Name != "hello" {
			t.Fatalf("unexpected Update payload: %+v", resp.Update)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for a Response")
	}
}

func TestAttachWiresToAnInMemoryPipe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server, clientSide := newPipeConn()
	defer server.Close()

	c := Attach(ctx, clientSide)

	go func() {
		encoder := wire.NewEncoder(server)
		encoder.Encode(wire.NewUpdateResponse(nil))
	}()

	select {
	case resp := <-c.Stream():
		if resp.Kind != wire.ResponseUpdate {
			t.Fatalf("expected an Update response, got %v", resp.Kind)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for a Response")
	}
}
