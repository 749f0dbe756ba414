// Command kestrelctl is a line-oriented REPL for talking to kestreld
// directly, useful for debugging plugins without a graphical frontend.
// It prints a colored prompt, and ends on ":exit", on EOF, or when
// Ctrl+C/SIGTERM cancels the context that spawned kestreld.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/kestrel-run/kestrel/internal/launcher/client"
	"github.com/kestrel-run/kestrel/internal/launcher/wire"
)

const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorOrange = "\033[38;5;208m"
	colorGray   = "\033[38;5;241m"
	colorRed    = "\033[38;5;196m"
)

func main() {
	var path string
	fs := pflag.NewFlagSet("kestrelctl", pflag.ExitOnError)
	fs.StringVar(&path, "kestreld", "kestreld", "Path to the kestreld binary to spawn.")
	fs.Parse(os.Args[1:])

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c, err := client.Spawn(ctx, client.Options{Path: path})
	if err != nil {
		fmt.Fprintf(os.Stderr, "kestrelctl: %v\n", err)
		os.Exit(1)
	}

	printBanner(path)
	if err := repl(ctx, c); err != nil {
		fmt.Fprintf(os.Stderr, "kestrelctl: %v\n", err)
		os.Exit(1)
	}
}

func printBanner(path string) {
	fmt.Printf("%s%skestrelctl%s — connected to %s\n", colorBold, colorOrange, colorReset, path)
	fmt.Println("  type a query to Search, or one of:")
	fmt.Println("  :activate <id>   :complete <id>   :context <id>   :quit <id>   :exit")
	fmt.Println()
}

// repl reads lines from stdin, sends the corresponding Request, and prints
// every Response that arrives until the user exits or stdin closes.
func repl(ctx context.Context, c *client.Client) error {
	go func() {
		for resp := range c.Stream() {
			printResponse(resp)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print(prompt())
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Print(prompt())
			continue
		}

		req, quit := parseLine(line)
		if quit {
			return c.Exit()
		}

		if err := c.Send(req); err != nil {
			fmt.Printf("%s%ssend error: %v%s\n", colorBold, colorRed, err, colorReset)
		}
		fmt.Print(prompt())
	}

	return c.Exit()
}

func prompt() string {
	return colorOrange + colorBold + "> " + colorReset
}

// parseLine turns one line of REPL input into a Request. Unrecognized
// ":command" lines are treated as a literal search query.
func parseLine(line string) (req wire.Request, exit bool) {
	if !strings.HasPrefix(line, ":") {
		return wire.NewSearch(line), false
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case ":exit":
		return wire.Request{}, true
	case ":activate":
		return wire.NewActivate(parseID(fields)), false
	case ":complete":
		return wire.NewComplete(parseID(fields)), false
	case ":context":
		return wire.NewContext(parseID(fields)), false
	case ":quit":
		return wire.NewQuit(parseID(fields)), false
	case ":interrupt":
		return wire.NewInterrupt(), false
	default:
		return wire.NewSearch(line), false
	}
}

func parseID(fields []string) wire.Indice {
	if len(fields) < 2 {
		return 0
	}
	n, _ := strconv.ParseUint(fields[1], 10, 32)
	return wire.Indice(n)
}

func printResponse(resp wire.Response) {
	switch resp.Kind {
	case wire.ResponseUpdate:
		fmt.Printf("%s%d results%s\n", colorDim, len(resp.Update), colorReset)
		for _, r := range resp.Update {
			fmt.Printf("  [%d] %s%s%s\n", r.ID, colorBold, r.Name, colorReset)
			if r.Description != "" {
				fmt.Printf("      %s%s%s\n", colorGray, r.Description, colorReset)
			}
		}
	case wire.ResponseClose:
		fmt.Printf("%s<close>%s\n", colorDim, colorReset)
	case wire.ResponseContext:
		fmt.Printf("%scontext for %d:%s\n", colorDim, resp.Context.ID, colorReset)
		for _, o := range resp.Context.Options {
			fmt.Printf("  [%d] %s\n", o.ID, o.Name)
		}
	case wire.ResponseDesktopEntry:
		fmt.Printf("%sdesktop entry: %s (%s)%s\n", colorDim, resp.DesktopEntry.Path, resp.DesktopEntry.GpuPreference, colorReset)
	case wire.ResponseFill:
		fmt.Printf("%sfill: %s%s\n", colorDim, resp.Fill, colorReset)
	}
	fmt.Print(prompt())
}
