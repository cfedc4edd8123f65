package cmd

import (
	"github.com/spf13/cobra"
)

// topicsCmd represents the topics command
var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Validate and explore bus topics",
	Long: `The topics command provides tools for checking topic paths and for
inspecting the topics of a running bus.

Available subcommands:
  validate  Check a path against the register, subscribe, publish and remove rules
  class     Print the class topic derived from a type name
  list      List the topics of a running bus through its admin API

Examples:
  eventpress topics validate /orders/created
  eventpress topics class github.com/acme/orders.Created
  eventpress topics list --addr 127.0.0.1:8081 --format json`,
}

func init() {
	rootCmd.AddCommand(topicsCmd)
}
