package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/bubbletime/internal/sources/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Work with seed files",
}

var seedCheckCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Validate a seed file without importing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := seed.NewLoader(args[0]).Load()
		if err != nil {
			return err
		}
		plan, err := seed.NewMapper().Map(file)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %d bubbles, %d links\n",
			args[0], len(plan.Bubbles), len(plan.Links))
		return nil
	},
}

func init() {
	seedCmd.AddCommand(seedCheckCmd)
	rootCmd.AddCommand(seedCmd)
}
