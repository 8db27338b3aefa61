package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sleep-404/SmartDarshan/internal/model"
)

var ackCmd = &cobra.Command{
	Use:   "ack <alert-id>",
	Short: "Acknowledge an alert",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var alert model.Alert
		if err := apiPost("/api/alerts/"+args[0]+"/acknowledge", nil, &alert); err != nil {
			return err
		}
		fmt.Printf("%s: %s\n", alert.ID, alert.Status)
		return nil
	},
}

var gateCmd = &cobra.Command{
	Use:   "gate <gate-id> <open|restricted|closed>",
	Short: "Set a gate's operational status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]string{"status": args[1]}
		var gate model.Gate
		if err := apiPost("/api/gates/"+args[0]+"/control", body, &gate); err != nil {
			return err
		}
		fmt.Printf("%s: %s (congestion %d%%)\n", gate.ID, gate.Status, gate.Congestion)
		return nil
	},
}
