// Command kestreld runs the launcher orchestrator service: it reads
// frontend Requests on stdin and writes Responses on stdout, following
// the plugin-host protocol (SPEC_FULL.md §4, §A.2).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kestrel-run/kestrel/internal/launcher/config"
	"github.com/kestrel-run/kestrel/internal/launcher/logging"
	"github.com/kestrel-run/kestrel/internal/launcher/orchestrator"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCommand builds the kestreld root command. kestreld is a single
// long-running daemon with one mode of operation, so it binds its options
// directly rather than through a command-group factory.
func NewRootCommand() *cobra.Command {
	opts := config.NewOptions()
	v := viper.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "kestreld",
		Short: "kestreld is the desktop-launcher plugin orchestrator service",
		Long: `kestreld hosts launcher plugins: it discovers them on disk, spawns
and supervises their subprocesses, fans a frontend's search queries out to
every matching plugin, and merges their results into a single ranked list.`,
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile != "" {
				v.SetConfigFile(cfgFile)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("reading config file: %w", err)
				}
				if err := v.Unmarshal(opts); err != nil {
					return fmt.Errorf("parsing config file: %w", err)
				}
			}
			if errs := opts.Validate(); len(errs) > 0 {
				return fmt.Errorf("invalid configuration: %v", errs[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Path to a YAML/JSON/TOML config file.")
	opts.AddFlags(flags)
	if err := config.BindViper(v, flags); err != nil {
		logging.Warn("[kestreld] binding flags to viper: %v", err)
	}

	return cmd
}

// runServe wires Options into an orchestrator and runs it until the
// process receives SIGINT/SIGTERM or the frontend sends Request_Exit.
func runServe(ctx context.Context, opts *config.Options) error {
	logging.SetLevel(opts.LogLevel)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	oc := orchestrator.Config{
		AppName:      opts.AppName,
		SearchPaths:  opts.SearchPaths,
		RecentDBPath: opts.RecentDBPath,
		Watch:        opts.Watch,
	}

	o, err := oc.Complete().New(ctx, os.Stdin, os.Stdout)
	if err != nil {
		return fmt.Errorf("starting orchestrator: %w", err)
	}
	defer o.Close()

	o.Run()
	return nil
}
