package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nfrund/eventpress/cmd/eventpress/internal/topics"
	"github.com/nfrund/eventpress/internal/topicmgr"
)

// topicsValidateCmd represents the topics validate command
var topicsValidateCmd = &cobra.Command{
	Use:   "validate <topic-path>",
	Short: "Validate a topic path",
	Long: `Validate a topic path against every rule the bus applies.

A path must start with '/', must not end with '/', must not contain empty
segments and may only use letters, digits, '.', '_', '-' and '/'. The
reserved roots cannot be registered, and the default topic together with
everything below it can never be removed.

Examples:
  eventpress topics validate /orders/created    # valid everywhere
  eventpress topics validate /sys/common        # valid, but not removable
  eventpress topics validate orders             # fails every check`,
	Args: cobra.ExactArgs(1),
	RunE: topicsValidateHandler,
}

func topicsValidateHandler(cmd *cobra.Command, args []string) error {
	path := args[0]
	verdicts := []topics.Verdict{
		{Operation: "register", Err: topicmgr.ValidateForRegister(path)},
		{Operation: "subscribe", Err: topicmgr.ValidateForSubscribe(path)},
		{Operation: "publish", Err: topicmgr.ValidateForPublish(path)},
		{Operation: "remove", Err: topicmgr.ValidateForRemove(path)},
	}

	topics.DisplayValidation(cmd.OutOrStdout(), path, verdicts)
	if verdicts[0].Err != nil {
		return fmt.Errorf("topic %q is not valid", path)
	}
	return nil
}

func init() {
	topicsCmd.AddCommand(topicsValidateCmd)
}
