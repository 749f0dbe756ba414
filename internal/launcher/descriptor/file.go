package descriptor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kestrel-run/kestrel/internal/launcher/logging"
)

// rawBinary mirrors the original "bin" table: an executable path (absolute
// or relative to the plugin's own directory) plus its arguments.
type rawBinary struct {
	Path string   `json:"path"`
	Args []string `json:"args,omitempty"`
}

// rawQuery mirrors the original "query" table (spec §3 query-gating fields).
type rawQuery struct {
	Help       string `json:"help,omitempty"`
	Isolate    bool   `json:"isolate,omitempty"`
	NoSort     bool   `json:"no_sort,omitempty"`
	Persistent bool   `json:"persistent,omitempty"`
	Regex      string `json:"regex,omitempty"`
}

// rawDescriptor is the on-disk JSON shape of a plugin.json descriptor
// file, one per plugin directory (spec §4.2, §6 "plugin discovery paths").
type rawDescriptor struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Bin         *rawBinary `json:"bin,omitempty"`
	Icon        *Icon      `json:"icon,omitempty"`
	Query       rawQuery   `json:"query"`
}

// LoadFile parses the plugin.json file at configPath. source is the
// plugin's own directory, used to resolve a relative bin.path (spec §6:
// "bin.path is either absolute or relative to that directory").
//
// A malformed file, a missing name or a missing bin table is reported as
// an error (LoadFile does not log it; Discover and Watch do); the caller is
// expected to skip this plugin and continue (spec §4.2, §7 "Descriptor
// parse failure").
func LoadFile(source, configPath string) (*Descriptor, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("descriptor: read %s: %w", configPath, err)
	}

	var raw rawDescriptor
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("descriptor: malformed config at %s: %w", configPath, err)
	}

	if raw.Name == "" {
		return nil, fmt.Errorf("descriptor: %s: name is required", configPath)
	}

	d := &Descriptor{
		Name:        raw.Name,
		Description: raw.Description,
		Help:        raw.Query.Help,
		Icon:        raw.Icon,
		Isolate:     raw.Query.Isolate,
		NoSort:      raw.Query.NoSort,
		Persistent:  raw.Query.Persistent,
	}

	if raw.Bin == nil {
		return nil, fmt.Errorf("descriptor: %s: bin field is missing", configPath)
	}
	if strings.HasPrefix(raw.Bin.Path, "/") {
		d.Exec = raw.Bin.Path
	} else {
		d.Exec = filepath.Join(source, raw.Bin.Path)
	}
	d.Args = append([]string(nil), raw.Bin.Args...)

	if raw.Query.Regex != "" {
		re, err := CompileTrigger(raw.Query.Regex)
		if err != nil {
			logging.Warn("[descriptor] %s: trigger regex %q failed to compile, registering as never-matching: %v",
				raw.Name, raw.Query.Regex, err)
			d.TriggerRegex = NeverMatch()
		} else {
			d.TriggerRegex = re
		}
	}

	return d, nil
}
