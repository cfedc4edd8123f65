package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/nfrund/eventpress"
	"github.com/nfrund/eventpress/cmd/eventpress/internal/topics"
	"github.com/nfrund/eventpress/internal/config"
)

var (
	listAddr         string
	listOutputFormat string
)

// topicsListCmd represents the topics list command
var topicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the topics of a running bus",
	Long: `List the topics registered on a bus started with "eventpress serve".
The command queries the admin API and prints each topic with its policy,
scheduler, valve state, subscriber count and publish count.

Examples:
  eventpress topics list                           # table format
  eventpress topics list --format json             # JSON format
  eventpress topics list --addr 10.0.0.5:8081      # another instance`,
	RunE: topicsListHandler,
}

func topicsListHandler(cmd *cobra.Command, args []string) error {
	if listOutputFormat != "table" && listOutputFormat != "json" {
		return fmt.Errorf("invalid format %q: valid formats are table, json", listOutputFormat)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	list, err := fetchTopics(ctx, listAddr)
	if err != nil {
		return err
	}

	if listOutputFormat == "json" {
		return topics.DisplayTopicsJSON(cmd.OutOrStdout(), list)
	}
	topics.DisplayTopicsTable(cmd.OutOrStdout(), list)
	return nil
}

func fetchTopics(ctx context.Context, addr string) ([]eventpress.TopicInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/topics", nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach admin API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("admin API answered %s", resp.Status)
	}
	var list []eventpress.TopicInfo
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode topics: %w", err)
	}
	return list, nil
}

func init() {
	topicsListCmd.Flags().StringVar(&listAddr, "addr", config.DefaultAdminAddr, "Admin API address")
	topicsListCmd.Flags().StringVarP(&listOutputFormat, "format", "f", "table", "Output format (table, json)")
	topicsCmd.AddCommand(topicsListCmd)
}
