package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sleep-404/SmartDarshan/internal/agent"
)

var watchCmd = &cobra.Command{
	Use:   "watch <feed>",
	Short: "Tail an analytics feed (density, queue, gate, flow, ...)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		feed := args[0]

		// http(s):// -> ws(s)://
		wsBase := strings.Replace(serverURL, "http", "ws", 1)

		a := agent.New(wsBase, feed, 0, slog.Default())
		a.OnUpdate = func(v agent.View) {
			line := fmt.Sprintf("frame %-8d count %-4d density %.2f/m²  velocity %.2fm/s  %s",
				v.FrameNumber, v.Metrics.Count, v.Metrics.DensityPerSqm,
				v.Metrics.AvgVelocity, v.Metrics.CongestionLevel)
			if v.Advanced != nil && v.Advanced.CounterFlow {
				line += fmt.Sprintf("  counter-flow x%d", v.Advanced.CounterFlowCount)
			}
			fmt.Println(line)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := a.Connect(ctx); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "watching %s (ctrl-c to stop)\n", a.URL())

		<-ctx.Done()
		a.Disconnect()
		return nil
	},
}
