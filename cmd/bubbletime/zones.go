package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/bubbletime/internal/timezone"
)

var zonesCmd = &cobra.Command{
	Use:   "zones [query]",
	Short: "List zone identifiers, or search them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		svc := timezone.NewService(timezone.NewIANA())

		var zones []string
		if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
			zones = svc.Search(args[0], limit)
		} else {
			zones = svc.Zones()
			if limit > 0 && len(zones) > limit {
				zones = zones[:limit]
			}
		}

		if len(zones) == 0 {
			return fmt.Errorf("no zone matches %q", strings.Join(args, " "))
		}
		out := cmd.OutOrStdout()
		for _, z := range zones {
			fmt.Fprintln(out, z)
		}
		return nil
	},
}

func init() {
	zonesCmd.Flags().IntP("limit", "n", 0, "maximum number of zones printed (0 = all)")
	rootCmd.AddCommand(zonesCmd)
}
