// Nanohttpd is a demo server built on the nanohttp library.
//
// It serves a handful of example routes (ping, echo, greetings, forms,
// streaming, static files and a WebSocket echo), can announce itself over
// mDNS and exposes Prometheus metrics.
//
// Usage:
//
//	nanohttpd serve [flags]
//	nanohttpd routes [--output yaml]
//	nanohttpd discover [--timeout 5s]
//
// See 'nanohttpd <command> --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/nanohttp/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "nanohttpd",
	Short: "nanohttp demo server",
	Long: `A small HTTP/1.1 and WebSocket server built on the nanohttp library.

Use 'serve' to run it, 'routes' to list what it serves and 'discover' to find
other nanohttpd instances announced on the local network.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routesCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "nanohttpd %s\n", version.Full())
	},
}
