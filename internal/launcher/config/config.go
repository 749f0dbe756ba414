// Package config holds the daemon-wide settings for kestreld: app name,
// plugin search paths, recent database, live reload and log level, bound
// to pflag/viper the way
// the rest of the service's options are (SPEC_FULL.md §A.2).
package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kestrel-run/kestrel/internal/launcher/descriptor"
)

// Options holds the top-level kestreld configuration. Aligned with the
// service's configuration file and CLI flags.
type Options struct {
	AppName      string   `json:"app_name" mapstructure:"app_name"`
	SearchPaths  []string `json:"search_paths" mapstructure:"search_paths"`
	RecentDBPath string   `json:"recent_db_path" mapstructure:"recent_db_path"`
	Watch        bool     `json:"watch" mapstructure:"watch"`
	LogLevel     string   `json:"log_level" mapstructure:"log_level"`
}

// NewOptions returns Options populated with defaults.
func NewOptions() *Options {
	return &Options{
		AppName:  "kestrel",
		Watch:    true,
		LogLevel: "info",
	}
}

// Validate checks Options fields.
func (o *Options) Validate() []error {
	var errs []error
	switch o.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log_level %q", o.LogLevel))
	}
	return errs
}

// AddFlags adds flags for the daemon options.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.AppName, "app-name", o.AppName, "Application name used to resolve plugin discovery paths.")
	fs.StringSliceVar(&o.SearchPaths, "search-path", o.SearchPaths, "Additional plugin search paths (repeatable).")
	fs.StringVar(&o.RecentDBPath, "recent-db", o.RecentDBPath, "Path to the recent-activation database; empty disables the recent plugin.")
	fs.BoolVar(&o.Watch, "watch", o.Watch, "Live-reload plugin descriptors from the search paths.")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "Log level: debug, info, warn, error.")
}

// BindViper binds every flag in fs to viper under its flag name and, where
// that differs, also under the Options key it decodes into, so viper's
// config-file values populate only the options the user left at their
// flag default (spec A.2 "layered defaults -> file -> flags").
func BindViper(v *viper.Viper, fs *pflag.FlagSet) error {
	if err := v.BindPFlags(fs); err != nil {
		return err
	}
	for name, key := range map[string]string{"app-name": "app_name", "search-path": "search_paths", "recent-db": "recent_db_path", "log-level": "log_level"} {
		if f := fs.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// ResolveSearchPaths returns o.SearchPaths if set, otherwise the default
// discovery paths for o.AppName (spec §6).
func (o *Options) ResolveSearchPaths() []string {
	if len(o.SearchPaths) > 0 {
		return o.SearchPaths
	}
	return descriptor.DefaultSearchPaths(o.AppName)
}
