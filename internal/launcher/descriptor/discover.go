package descriptor

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/kestrel-run/kestrel/internal/launcher/logging"
)

const descriptorFileName = "plugin.json"

// DefaultSearchPaths returns the plugin search paths in priority order,
// highest priority first (spec §6 "Plugin discovery paths"), with "~"
// expanded against the current user's home directory.
func DefaultSearchPaths(appName string) []string {
	home, err := os.UserHomeDir()
	local := "~/.local/share/" + appName + "/plugins"
	if err == nil {
		local = filepath.Join(home, ".local", "share", appName, "plugins")
	}
	return []string{
		local,
		"/etc/" + appName + "/plugins",
		"/usr/lib/" + appName + "/plugins",
	}
}

// Discover walks searchPaths from highest to lowest priority and sends
// one Descriptor per discovered plugin directory containing a valid
// plugin.json, in discovery order. The caller (the orchestrator's
// registration step) is responsible for discarding duplicate names,
// keeping the first occurrence (spec §4.2) — Discover itself performs no
// deduplication since it has no notion of what's already registered.
//
// The returned channel is closed once every path has been walked.
func Discover(ctx context.Context, searchPaths []string) <-chan *Descriptor {
	out := make(chan *Descriptor)

	go func() {
		defer close(out)

		for _, root := range searchPaths {
			entries, err := os.ReadDir(root)
			if err != nil {
				continue // not configured / doesn't exist: not an error
			}

			for _, entry := range entries {
				select {
				case <-ctx.Done():
					return
				default:
				}

				if !entry.IsDir() {
					continue
				}

				source := filepath.Join(root, entry.Name())
				configPath := filepath.Join(source, descriptorFileName)
				if _, err := os.Stat(configPath); err != nil {
					continue
				}

				d, err := LoadFile(source, configPath)
				if err != nil {
					logging.Error("[descriptor] %v", err)
					continue
				}

				select {
				case out <- d:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

// Watch complements Discover with live reload: it watches each existing
// search-path directory for create and write events and emits the full
// descriptor for any plugin directory that appears or changes (removals
// are ignored), until ctx is
// canceled. This fulfills spec §9's note that the discovery producer may
// be any async sequence; here it is a long-lived one backed by fsnotify,
// a dependency the teacher already carries for config hot-reload.
func Watch(ctx context.Context, searchPaths []string) <-chan *Descriptor {
	out := make(chan *Descriptor)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Error("[descriptor] fsnotify unavailable, live reload disabled: %v", err)
		close(out)
		return out
	}

	for _, root := range searchPaths {
		if err := watcher.Add(root); err != nil {
			logging.Debug("[descriptor] not watching %s: %v", root, err)
		}
	}

	go func() {
		defer close(out)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}

				info, err := os.Stat(event.Name)
				if err != nil || !info.IsDir() {
					continue
				}

				configPath := filepath.Join(event.Name, descriptorFileName)
				if _, err := os.Stat(configPath); err != nil {
					continue
				}

				d, err := LoadFile(event.Name, configPath)
				if err != nil {
					logging.Error("[descriptor] %v", err)
					continue
				}

				select {
				case out <- d:
				case <-ctx.Done():
					return
				}

			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Warn("[descriptor] watch error: %v", watchErr)
			}
		}
	}()

	return out
}
