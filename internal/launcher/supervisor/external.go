// Package supervisor spawns and manages external (subprocess) plugin
// instances, the non-in-process half of the Handler contract in the
// plugin package (spec §4.4 "external plugin supervisor").
package supervisor

import (
	"context"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/google/uuid"

	"github.com/kestrel-run/kestrel/internal/launcher/descriptor"
	"github.com/kestrel-run/kestrel/internal/launcher/logging"
	"github.com/kestrel-run/kestrel/internal/launcher/plugin"
	"github.com/kestrel-run/kestrel/internal/launcher/wire"
)

// requestWriteBuffer bounds the request channel so a slow-to-start plugin
// doesn't block the orchestrator's event loop while it spawns.
const requestWriteBuffer = 8

// process is one running subprocess instance: its stdin (the request
// sink), and the bookkeeping needed to synthesize a Finished response and
// an ExitNotice if it dies uncleanly mid-search (spec §4.4). instanceID
// tags this particular spawn in log lines so repeated respawns of the
// same plugin (after a crash, via DropSender) can be told apart.
type process struct {
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	instanceID uuid.UUID

	mu        sync.Mutex
	searching bool
}

// Factory returns an InstanceFactory that spawns d.Exec on demand,
// forwards its stdout as decoded PluginResponses tagged with key into out,
// and posts an ExitNotice to exits when the subprocess terminates, however
// it terminates (spec §4.4 "Lazy plugin (re)spawn", "unclean exit mid-search").
//
// The returned factory is idempotent in the sense required by
// plugin.InstanceFactory: calling it spawns exactly one new subprocess,
// never more, regardless of how many times Connector.Sender invokes it
// between DropSender calls.
func Factory(ctx context.Context, key plugin.Key, d *descriptor.Descriptor, out chan<- plugin.ResponseEnvelope, exits chan<- plugin.ExitNotice) plugin.InstanceFactory {
	return func() chan<- wire.Request {
		reqCh := make(chan wire.Request, requestWriteBuffer)

		cmd := exec.CommandContext(ctx, d.Exec, d.Args...)
		cmd.Stderr = os.Stderr

		stdin, err := cmd.StdinPipe()
		if err != nil {
			logging.Error("[external] %s: stdin pipe: %v", d.Name, err)
			go emitFinishedAndExit(out, exits, key, d.Name, err)
			return reqCh
		}
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			logging.Error("[external] %s: stdout pipe: %v", d.Name, err)
			go emitFinishedAndExit(out, exits, key, d.Name, err)
			return reqCh
		}

		if err := cmd.Start(); err != nil {
			logging.Error("[external] %s: failed to start %s: %v", d.Name, d.Exec, err)
			go emitFinishedAndExit(out, exits, key, d.Name, err)
			return reqCh
		}

		p := &process{cmd: cmd, stdin: stdin, instanceID: uuid.New()}
		logging.Info("[external] %s: spawned pid %d, instance %s", d.Name, cmd.Process.Pid, p.instanceID)

		go p.writeLoop(ctx, reqCh, d.Name)
		go p.readLoop(ctx, stdout, key, out, d.Name)
		go p.waitLoop(key, out, exits, d.Name)

		return reqCh
	}
}

// writeLoop encodes each outgoing Request onto the subprocess's stdin,
// tracking whether a Search is in flight so waitLoop can tell a clean
// Finished from an unclean exit. It closes stdin when reqCh closes or a
// Request_Exit is sent, signalling the subprocess to shut down gracefully
// (spec §4.4 "graceful exit via stdin close").
func (p *process) writeLoop(ctx context.Context, reqCh <-chan wire.Request, name string) {
	enc := wire.NewEncoder(p.stdin)

	for {
		select {
		case <-ctx.Done():
			p.stdin.Close()
			return

		case req, ok := <-reqCh:
			if !ok {
				p.stdin.Close()
				return
			}

			if req.Kind == wire.RequestSearch {
				p.mu.Lock()
				p.searching = true
				p.mu.Unlock()
			} else if req.Kind == wire.RequestInterrupt {
				p.mu.Lock()
				p.searching = false
				p.mu.Unlock()
			}

			if err := enc.Encode(req); err != nil {
				logging.Warn("[external] %s: write request: %v", name, err)
			}

			if req.Kind == wire.RequestExit {
				p.stdin.Close()
				return
			}
		}
	}
}

// readLoop decodes the subprocess's stdout as a stream of PluginResponses
// and forwards each, tagged with key, to out. A Finished response clears
// the searching flag; readLoop synthesizes nothing at EOF, that is left to
// waitLoop once the process has exited (spec §4.4).
func (p *process) readLoop(ctx context.Context, stdout io.Reader, key plugin.Key, out chan<- plugin.ResponseEnvelope, name string) {
	responses := wire.Decode[wire.PluginResponse](ctx, stdout, "external:"+name)

	for resp := range responses {
		if resp.Kind == wire.PluginResponseFinished {
			p.mu.Lock()
			p.searching = false
			p.mu.Unlock()
		}

		select {
		case out <- plugin.ResponseEnvelope{Key: key, Response: resp}:
		case <-ctx.Done():
			return
		}
	}
}

// waitLoop blocks until the subprocess exits, then synthesizes a Finished
// response if a search was still in flight (the plugin crashed or was
// killed without emitting one), and always posts an ExitNotice so the
// orchestrator drops this connector's stale sink (spec §4.4, §4.6).
func (p *process) waitLoop(key plugin.Key, out chan<- plugin.ResponseEnvelope, exits chan<- plugin.ExitNotice, name string) {
	err := p.cmd.Wait()
	if err != nil {
		logging.Warn("[external] %s: instance %s exited: %v", name, p.instanceID, err)
	} else {
		logging.Info("[external] %s: instance %s exited cleanly", name, p.instanceID)
	}

	p.mu.Lock()
	wasSearching := p.searching
	p.searching = false
	p.mu.Unlock()

	if wasSearching {
		out <- plugin.ResponseEnvelope{Key: key, Response: wire.NewFinishedResponse()}
	}
	exits <- plugin.ExitNotice{Key: key}
}

// emitFinishedAndExit reports a failed spawn: one synthetic Append naming
// the failure, then Finished, then an ExitNotice so the next dispatch retries.
func emitFinishedAndExit(out chan<- plugin.ResponseEnvelope, exits chan<- plugin.ExitNotice, key plugin.Key, name string, err error) {
	out <- plugin.ResponseEnvelope{Key: key, Response: wire.NewAppendResponse(wire.PluginSearchResult{
		Name:        name + ": failed to start",
		Description: err.Error(),
	})}
	out <- plugin.ResponseEnvelope{Key: key, Response: wire.NewFinishedResponse()}
	exits <- plugin.ExitNotice{Key: key}
}
