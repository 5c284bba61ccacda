// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/pdiddy/apollo/internal/pipeline"
	"github.com/pdiddy/apollo/internal/refine"
	"github.com/pdiddy/apollo/internal/results"
)

var refineCmd = &cobra.Command{
	Use:   "refine [files or directories...]",
	Short: "Clean light curves for spectral analysis",
	Long: `Refine removes stray flux samples by sigma clipping, fills sampling gaps
with linearly interpolated samples at the dominant cadence, and shifts the
time axis to start at zero.

Arguments may be two-column text files (time, flux), FITS light curves, or
directories containing them. Each input produces <out>/<name>.dat and a
<name>.refine.yaml report. Runs are recorded in the SQLite index unless
--no-index is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRefine,
}

func runRefine(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	paths, err := expandInputs(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no light curves found in %v", args)
	}

	var recorder pipeline.Recorder
	noIndex, _ := cmd.Flags().GetBool("no-index")
	if !noIndex {
		store, err := results.NewStore(cfg.Results)
		if err != nil {
			return err
		}
		defer store.Close()
		recorder = store
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p := pipeline.New(cfg.Pipeline, refine.New(cfg.Refine), recorder)
	result, err := p.Run(ctx, paths, os.Stdout)
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d light curve(s) failed refinement", result.Failed)
	}
	return nil
}

// expandInputs replaces each directory argument by the light curves it
// contains.
func expandInputs(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		found, err := pipeline.Discover(arg)
		if err != nil {
			return nil, err
		}
		paths = append(paths, found...)
	}
	return paths, nil
}

func init() {
	refineCmd.Flags().String("out", "refined", "output directory for refined light curves")
	refineCmd.Flags().Int("workers", 0, "light curves refined in parallel (0 = number of CPUs)")
	refineCmd.Flags().String("time-column", "TIME", "FITS time column")
	refineCmd.Flags().String("flux-column", "PDCSAP_FLUX", "FITS flux column")
	refineCmd.Flags().Bool("no-index", false, "do not record runs in the SQLite index")

	bindFlag("pipeline.output_dir", refineCmd.Flags().Lookup("out"))
	bindFlag("pipeline.workers", refineCmd.Flags().Lookup("workers"))
	bindFlag("pipeline.fits.time_column", refineCmd.Flags().Lookup("time-column"))
	bindFlag("pipeline.fits.flux_column", refineCmd.Flags().Lookup("flux-column"))

	rootCmd.AddCommand(refineCmd)
}
