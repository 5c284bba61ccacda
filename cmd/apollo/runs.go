// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/apollo/internal/results"
)

var runsCmd = &cobra.Command{
	Use:   "runs [source]",
	Short: "List recorded refinement runs",
	Long: `Runs lists the refinements recorded in the SQLite index, newest first.
Pass a source path to show the history of one light curve.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := results.NewStore(cfg.Results)
		if err != nil {
			return err
		}
		defer store.Close()

		source := ""
		if len(args) > 0 {
			source = args[0]
		}
		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := store.Runs(context.Background(), source, limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No refinement runs recorded.")
			return nil
		}

		fmt.Printf("%-20s  %-36s  %7s  %7s  %7s  %7s  %s\n",
			"When", "Source", "In", "Out", "Removed", "Synth", "Cadence")
		for _, r := range runs {
			src := r.Source
			if len(src) > 36 {
				src = "..." + src[len(src)-33:]
			}
			fmt.Printf("%-20s  %-36s  %7d  %7d  %7d  %7d  %.6g\n",
				r.CreatedAt.Format("2006-01-02 15:04:05"), src,
				r.Stats.InputLen, r.Stats.OutputLen, r.Stats.Removed, r.Stats.Synthesized, r.Stats.Cadence)
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().Int("limit", 20, "maximum runs to list")
	rootCmd.AddCommand(runsCmd)
}
