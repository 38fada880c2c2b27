package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/bubbletime/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server and the background refresher",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := app.New()
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	return a.Run()
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
