package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╔╗ ┬┌┐┌┌┬┐┬┌─┬┌┬┐
  ╠╩╗││││ ││├┴┐│ │
  ╚═╝┴┘└┘─┴┘┴ ┴┴ ┴
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "bindkit",
		Short: "Property binding toolkit for observable Go objects",
		Long: `Bindkit links named properties of observable objects so that a
change on one side is propagated to the other, optionally in both
directions and through value transforms.

Commands:

  • serve — expose objects and their bindings over HTTP/WebSocket
  • demo  — run a small two-object binding walkthrough`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		demoCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

// printBanner prints the bindkit ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
