package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var serverURL string

func defaultServerURL() string {
	if s := os.Getenv("SD_HTTP_URL"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

var rootCmd = &cobra.Command{
	Use:   "darshanctl <command>",
	Short: "Operator CLI for the SmartDarshan backend",
}

func main() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServerURL(), "backend base URL")
	rootCmd.AddCommand(statusCmd, ackCmd, gateCmd, watchCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
