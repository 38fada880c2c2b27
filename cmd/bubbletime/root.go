package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bubbletime",
	Short: "Track time-zone bubbles and the hour differences between them",
	Long: "bubbletime keeps a set of named time-zone bubbles, links pairs of them " +
		"with their hour difference and serves the state over HTTP.\n\n" +
		"Without a subcommand it runs the server. Configuration comes from " +
		"BUBBLETIME_* environment variables.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}
