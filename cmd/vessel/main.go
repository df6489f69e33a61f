package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errorMsg(os.Stderr, "%s", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "vessel",
		Short: "Server-side hydration for custom element components",
		Long: `Vessel upgrades custom elements in an HTML document, renders every
component on the server and returns the hydrated markup.

Examples:
  vessel hydrate page.html --url=https://example.com/
  vessel hydrate page.html --watch --diff
  vessel serve --port=8080`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configDir, "config", "c", "", "Directory containing vessel.yaml (default: nearest parent)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")

	root.AddCommand(
		hydrateCmd(opts),
		serveCmd(opts),
		componentsCmd(),
		versionCmd(),
	)
	return root
}

var (
	successMark = color.New(color.FgGreen).Sprint("✓")
	warnMark    = color.New(color.FgYellow).Sprint("⚠")
	errorMark   = color.New(color.FgRed).Sprint("✗")
)

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", successMark, fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", warnMark, fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func errorMsg(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", errorMark, fmt.Sprintf(format, args...))
}
