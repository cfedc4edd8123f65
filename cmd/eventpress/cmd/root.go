package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "eventpress",
	Short: "eventpress topic bus tool",
	Long: `eventpress is a command-line interface for the eventpress topic bus.

Available commands:
  topics    Validate topic paths, derive class topics, list a running bus
  demo      Show how a backpressure policy treats a slow subscriber
  serve     Run a bus with the admin API and an optional topic manifest
  version   Print the version

Use "eventpress [command] --help" for more information about a specific command.`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
