// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/apollo/internal/lightcurve"
	"github.com/pdiddy/apollo/internal/refine"
)

var gapsCmd = &cobra.Command{
	Use:   "gaps <file>",
	Short: "Report the cadence and sampling gaps of a light curve",
	Long: `Gaps prints the dominant sampling interval of a light curve and the
index of every sample followed by an interval larger than the gap tolerance
times the cadence. The light curve is not modified.`,
	Args: cobra.ExactArgs(1),
	RunE: runGaps,
}

type gapReport struct {
	Source  string  `json:"source"`
	Samples int     `json:"samples"`
	Cadence float64 `json:"cadence"`
	Gaps    []gap   `json:"gaps"`
}

type gap struct {
	Index int     `json:"index"`
	Start float64 `json:"start"`
	Width float64 `json:"width"`
}

func runGaps(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	lc, err := lightcurve.Load(args[0], cfg.Pipeline.FITS)
	if err != nil {
		return err
	}

	indices, cadence, err := refine.New(cfg.Refine).GetGaps(lc)
	if err != nil {
		return err
	}

	rep := gapReport{Source: args[0], Samples: lc.Len(), Cadence: cadence, Gaps: []gap{}}
	for _, i := range indices {
		rep.Gaps = append(rep.Gaps, gap{Index: i, Start: lc.Time[i], Width: lc.Time[i+1] - lc.Time[i]})
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	fmt.Printf("%s: %d samples, cadence %.6g\n", rep.Source, rep.Samples, rep.Cadence)
	if len(rep.Gaps) == 0 {
		fmt.Println("No gaps.")
		return nil
	}
	fmt.Printf("%8s  %14s  %12s  %8s\n", "Index", "Start", "Width", "Missing")
	for _, g := range rep.Gaps {
		fmt.Printf("%8d  %14.6f  %12.6g  %8.0f\n", g.Index, g.Start, g.Width, g.Width/rep.Cadence-1)
	}
	fmt.Printf("\n%d gaps\n", len(rep.Gaps))
	return nil
}

func init() {
	gapsCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(gapsCmd)
}
