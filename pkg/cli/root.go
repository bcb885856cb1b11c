// Package cli implements the peekd command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "peekd",
	Short: "peekd is a local HTTP request inspector",
	Long: `peekd runs a single HTTP server that captures every request sent to it
and shows the traffic live in a browser dashboard.

Point a webhook, SDK, or curl at any path and peekd records the method, path,
query parameters, headers, and body. Watch requests arrive in real time at /,
stream them over SSE at /events, or fetch the captured history from
/api/requests.

Configuration can be provided via flags, PEEKD_* environment variables, or a
peekd.yaml file in the working directory.`,
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Execute()
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
