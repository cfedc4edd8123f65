package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nfrund/eventpress/internal/topicmgr"
)

var topicsClassCmd = &cobra.Command{
	Use:   "class <type-name>",
	Short: "Print the class topic of a type",
	Long: `Print the topic that type-addressed publishing uses for a Go type.
Pass the fully qualified name: the package import path, a dot and the type.

Example:
  eventpress topics class github.com/acme/orders.Created
  # /sys/class/github.com.acme.orders.Created`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), topicmgr.ClassTopicName(args[0]))
	},
}

func init() {
	topicsCmd.AddCommand(topicsClassCmd)
}
