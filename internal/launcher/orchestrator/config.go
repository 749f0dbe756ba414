package orchestrator

import (
	"context"
	"io"

	"github.com/kestrel-run/kestrel/internal/launcher/descriptor"
	"github.com/kestrel-run/kestrel/internal/launcher/logging"
	"github.com/kestrel-run/kestrel/internal/launcher/plugin"
	"github.com/kestrel-run/kestrel/internal/launcher/wire"
)

// Config is the orchestrator's top-level settings, following the same
// Config -> Complete -> New construction shape the rest of the service
// uses (spec §4.6 "orchestrator construction").
type Config struct {
	// AppName names the application directory used for plugin discovery
	// search paths (spec §6), e.g. "kestrel".
	AppName string

	// SearchPaths overrides the default discovery paths when non-empty.
	SearchPaths []string

	// RecentDBPath is where the internal recent plugin persists its
	// BoltDB store. Empty disables the recent plugin.
	RecentDBPath string

	// Watch enables live descriptor reload via the descriptor package's
	// fsnotify-backed producer (spec §9).
	Watch bool
}

// CompletedConfig is Config after defaults have been filled in.
type CompletedConfig struct {
	*Config
}

// Complete fills in defaults for any unset field.
func (c *Config) Complete() CompletedConfig {
	if c.AppName == "" {
		c.AppName = "kestrel"
	}
	if len(c.SearchPaths) == 0 {
		c.SearchPaths = descriptor.DefaultSearchPaths(c.AppName)
	}
	return CompletedConfig{c}
}

// New builds an Orchestrator: it discovers plugins on disk, registers the
// internal help and (if configured) recent plugins, and wires a reader
// over in and a writer over out as the frontend transport (spec §4.6).
func (c CompletedConfig) New(ctx context.Context, in io.Reader, out io.Writer) (*Orchestrator, error) {
	ctx, cancel := context.WithCancel(ctx)

	o := &Orchestrator{
		registry:  plugin.NewRegistry(),
		responses: make(chan plugin.ResponseEnvelope, 64),
		exits:     make(chan plugin.ExitNotice, 16),
		requests:  wire.Decode[wire.Request](ctx, in, "frontend"),
		encoder:   wire.NewEncoder(out),
		ctx:            ctx,
		cancel:         cancel,
		state:          newState(),
		pendingContext: make(map[plugin.Key]wire.Indice),
	}

	o.registerHelp()

	if c.RecentDBPath != "" {
		db, err := plugin.OpenStore(c.RecentDBPath)
		if err != nil {
			logging.Warn("[orchestrator] recent plugin disabled, failed to open store at %s: %v", c.RecentDBPath, err)
		} else {
			o.recentDB = db
			o.registerRecent()
		}
	}

	for d := range descriptor.Discover(ctx, c.SearchPaths) {
		o.registerExternal(d)
	}

	if c.Watch {
		go func() {
			for d := range descriptor.Watch(ctx, c.SearchPaths) {
				if _, ok := o.registry.Lookup(d.Name); ok {
					continue
				}
				o.registerExternal(d)
				logging.Info("[orchestrator] live-registered plugin %s", d.Name)
			}
		}()
	}

	logging.Info("[orchestrator] ready with %d plugins", o.registry.Len())
	return o, nil
}

// Close releases the recent plugin's store and cancels every running
// plugin instance.
func (o *Orchestrator) Close() error {
	o.cancel()
	if o.recentDB != nil {
		return o.recentDB.Close()
	}
	return nil
}
