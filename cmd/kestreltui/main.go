// Command kestreltui is a terminal frontend for kestreld: a text input
// drives Search requests, and results stream into a scrollable list.
// Selecting an entry sends Activate. It spawns kestreld itself, the way
// a desktop shell would host it as a background service.
package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/kestrel-run/kestrel/internal/launcher/client"
)

func main() {
	var path string
	fs := pflag.NewFlagSet("kestreltui", pflag.ExitOnError)
	fs.StringVar(&path, "kestreld", "kestreld", "Path to the kestreld binary to spawn.")
	fs.Parse(os.Args[1:])

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := client.Spawn(ctx, client.Options{Path: path})
	if err != nil {
		fmt.Fprintf(os.Stderr, "kestreltui: %v\n", err)
		os.Exit(1)
	}
	defer c.Exit()

	m := newModel(c)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "kestreltui: %v\n", err)
		os.Exit(1)
	}
}
