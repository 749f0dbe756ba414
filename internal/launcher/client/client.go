// Package client is a thin IPC client for talking to kestreld over its
// line-delimited JSON protocol, grounded on the reference service's
// client.rs: spawn (or attach to) the daemon, write Requests to its
// stdin, and stream decoded Responses back (SPEC_FULL.md §C.3).
package client

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/kestrel-run/kestrel/internal/launcher/wire"
)

// Client sends Requests to a kestreld instance and streams its Responses.
type Client struct {
	stdin     io.WriteCloser
	closer    io.Closer // closes the underlying transport (child process or conn)
	encoder   *wire.Encoder
	responses <-chan wire.Response
	cancel    context.CancelFunc
}

// Options configures how Spawn launches the daemon binary.
type Options struct {
	// Path is the kestreld binary to exec. Defaults to "kestreld" on PATH.
	Path string
	// Args are extra arguments passed to the daemon.
	Args []string
}

// Spawn starts a new kestreld subprocess and returns a Client wired to its
// stdin/stdout.
func Spawn(ctx context.Context, opts Options) (*Client, error) {
	path := opts.Path
	if path == "" {
		path = "kestreld"
	}

	ctx, cancel := context.WithCancel(ctx)

	cmd := exec.CommandContext(ctx, path, opts.Args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("client: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("client: stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("client: starting %s: %w", path, err)
	}

	return &Client{
		stdin:     stdin,
		closer:    processCloser{cmd},
		encoder:   wire.NewEncoder(stdin),
		responses: wire.Decode[wire.Response](ctx, stdout, "client"),
		cancel:    cancel,
	}, nil
}

// Attach wires a Client to an already-open transport (e.g. a unix socket
// or a pipe to a daemon launched some other way) instead of spawning a
// subprocess.
func Attach(ctx context.Context, conn io.ReadWriteCloser) *Client {
	ctx, cancel := context.WithCancel(ctx)
	return &Client{
		stdin:     conn,
		closer:    conn,
		encoder:   wire.NewEncoder(conn),
		responses: wire.Decode[wire.Response](ctx, conn, "client"),
		cancel:    cancel,
	}
}

// Send writes a single Request to the daemon.
func (c *Client) Send(req wire.Request) error {
	return c.encoder.Encode(req)
}

// Stream returns the channel of decoded Responses. It closes when the
// transport is exhausted or the Client's context is canceled.
func (c *Client) Stream() <-chan wire.Response {
	return c.responses
}

// Search is a convenience wrapper around Send(wire.NewSearch(query)).
func (c *Client) Search(query string) error {
	return c.Send(wire.NewSearch(query))
}

// Activate is a convenience wrapper around Send(wire.NewActivate(id)).
func (c *Client) Activate(id wire.Indice) error {
	return c.Send(wire.NewActivate(id))
}

// Exit sends Request_Exit and waits for the transport to close.
func (c *Client) Exit() error {
	err := c.Send(wire.NewExit())
	c.cancel()
	if closeErr := c.closer.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// processCloser adapts exec.Cmd to io.Closer by waiting for the process to
// exit; Wait closes the stdin pipe once the process is gone. Client.Exit
// sends Exit and cancels the spawn context before calling Close, so a child
// still running at that point is killed by exec.CommandContext.
type processCloser struct {
	cmd *exec.Cmd
}

func (p processCloser) Close() error {
	if p.cmd.Process != nil {
		_ = p.cmd.Wait()
	}
	return nil
}
