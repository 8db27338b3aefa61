package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "darshand <command>",
	Short: "SmartDarshan crowd-management backend",
	Long:  "darshand serves the temple dashboard: simulated crowd state, realtime sync, analytics feeds, and the HLS preview stream.",
}

func main() {
	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
