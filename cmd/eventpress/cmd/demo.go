package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/nfrund/eventpress"
	"github.com/nfrund/eventpress/cmd/eventpress/internal/topics"
)

var (
	demoPolicy   string
	demoCount    int
	demoDelay    time.Duration
	demoCapacity int
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Publish to a slow subscriber under a backpressure policy",
	Long: `Publish a burst of integers to a subscriber that sleeps on every
value, then report what the subscriber received.

  buffer  every value arrives, in order
  drop    values published while the subscriber is busy and its queue is full are discarded
  latest  only the newest pending value is kept

Examples:
  eventpress demo --policy latest -n 100
  eventpress demo --policy drop -n 50 --capacity 4 --delay 5ms`,
	RunE: demoHandler,
}

// DemoResult is what the slow subscriber observed.
type DemoResult struct {
	Published int
	Received  int64
	Dropped   uint64
	Last      int64
}

func demoHandler(cmd *cobra.Command, args []string) error {
	policy, err := eventpress.ParsePolicy(demoPolicy)
	if err != nil {
		return err
	}
	res, err := runDemo(cmd.Context(), policy, demoCount, demoDelay, demoCapacity)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Policy:    %s\n", topics.Title(policy.String()))
	fmt.Fprintf(out, "Published: %d\n", res.Published)
	fmt.Fprintf(out, "Received:  %d\n", res.Received)
	fmt.Fprintf(out, "Dropped:   %d\n", res.Dropped)
	fmt.Fprintf(out, "Last:      %d\n", res.Last)
	return nil
}

func runDemo(ctx context.Context, policy eventpress.Policy, n int, delay time.Duration, capacity int) (DemoResult, error) {
	b := eventpress.New(
		eventpress.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		eventpress.WithDropCapacity(capacity),
	)
	if err := b.Init(); err != nil {
		return DemoResult{}, err
	}

	const topic = "/demo/values"
	if _, err := b.Builder().Topic(topic).Backpressure(policy).Scheduler(eventpress.IO).Build(); err != nil {
		return DemoResult{}, err
	}

	var received, last atomic.Int64
	completed := make(chan struct{})
	sub, err := eventpress.Observe(b, topic, func(v int) {
		time.Sleep(delay)
		received.Add(1)
		last.Store(int64(v))
	}, eventpress.OnComplete(func() { close(completed) }))
	if err != nil {
		return DemoResult{}, err
	}

	for i := 1; i <= n; i++ {
		if err := b.PublishTo(ctx, topic, i); err != nil {
			return DemoResult{}, err
		}
	}

	if err := b.Shutdown(ctx); err != nil {
		return DemoResult{}, err
	}
	<-completed

	return DemoResult{
		Published: n,
		Received:  received.Load(),
		Dropped:   sub.Dropped(),
		Last:      last.Load(),
	}, nil
}

func init() {
	demoCmd.Flags().StringVar(&demoPolicy, "policy", "buffer", "Backpressure policy (buffer, drop, latest)")
	demoCmd.Flags().IntVarP(&demoCount, "count", "n", 20, "Number of values to publish")
	demoCmd.Flags().DurationVar(&demoDelay, "delay", 10*time.Millisecond, "Time the subscriber spends on each value")
	demoCmd.Flags().IntVar(&demoCapacity, "capacity", 1, "Queue capacity for the drop policy")
	rootCmd.AddCommand(demoCmd)
}
