// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/apollo/internal/lightcurve"
	"github.com/pdiddy/apollo/internal/refine"
	"github.com/pdiddy/apollo/internal/render"
	"github.com/pdiddy/apollo/internal/results"
)

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Draw light curves and result diagnostics as PNG figures",
}

var plotLightCurveCmd = &cobra.Command{
	Use:   "lightcurve <file>",
	Short: "Plot a light curve, optionally next to its refined version",
	Long: `Lightcurve draws the flux of a light curve against time. With --refined
the curve is also refined with the current settings and drawn on top, so
removed strays and filled gaps can be inspected.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlotLightCurve,
}

func runPlotLightCurve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	raw, err := lightcurve.Load(args[0], cfg.Pipeline.FITS)
	if err != nil {
		return err
	}
	curves := []render.Curve{{Label: "raw", LC: raw}}

	withRefined, _ := cmd.Flags().GetBool("refined")
	if withRefined {
		refined, st, err := refine.New(cfg.Refine).Refine(raw)
		if err != nil {
			return err
		}
		curves = append(curves, render.Curve{Label: "refined", LC: refine.Restore(refined, st), Line: true})
		fmt.Printf("removed %d strays, filled %d gaps with %d samples\n", st.Removed, st.Gaps, st.Synthesized)
	}

	out := outputPath(cmd, lightcurve.BaseName(args[0])+".png")
	if err := render.LightCurve(out, lightcurve.BaseName(args[0]), cfg.Plot, curves...); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", out)
	return nil
}

var plotResultsCmd = &cobra.Command{
	Use:   "results [dir]",
	Short: "Scatter one result field against another",
	Long: `Results aggregates the result documents under the results directory and
plots --x against --y. Fields are bayes_factor, literature, or the name of a
Full Background result parameter. Measured values are drawn with error bars.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlotResults,
}

func runPlotResults(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rcfg, err := resultsConfig(args)
	if err != nil {
		return err
	}

	rep, err := results.Aggregate(context.Background(), rcfg.ResultsDir)
	if err != nil {
		return err
	}
	reportFailures(rep)

	xKey, _ := cmd.Flags().GetString("x")
	yKey, _ := cmd.Flags().GetString("y")
	out := outputPath(cmd, fmt.Sprintf("%s_vs_%s.png", yKey, xKey))
	title := fmt.Sprintf("%s vs %s", yKey, xKey)
	if err := render.Scatter(out, title, xKey, yKey, cfg.Plot, rep.Series(xKey, yKey)); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", out)
	return nil
}

var plotBayesCmd = &cobra.Command{
	Use:   "bayes [dir]",
	Short: "Bar chart of the Bayes factor of every result",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPlotBayes,
}

func runPlotBayes(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rcfg, err := resultsConfig(args)
	if err != nil {
		return err
	}

	rep, err := results.Aggregate(context.Background(), rcfg.ResultsDir)
	if err != nil {
		return err
	}
	reportFailures(rep)

	out := outputPath(cmd, "bayes_factors.png")
	if err := render.BayesFactors(out, cfg.Plot, rep); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", out)
	return nil
}

func reportFailures(rep results.Report) {
	for _, f := range rep.Failed {
		fmt.Printf("  skipped %s: %s\n", f.Path, f.Error)
	}
}

// outputPath returns --output when set, otherwise name inside --dir.
func outputPath(cmd *cobra.Command, name string) string {
	if out, _ := cmd.Flags().GetString("output"); out != "" {
		return out
	}
	dir, _ := cmd.Flags().GetString("dir")
	return filepath.Join(dir, name)
}

func init() {
	plotCmd.PersistentFlags().String("output", "", "figure path (overrides --dir)")
	plotCmd.PersistentFlags().String("dir", "plots", "directory for figures")
	plotCmd.PersistentFlags().Float64("width", 0, "figure width in inches (default 12)")
	plotCmd.PersistentFlags().Float64("height", 0, "figure height in inches (default 5)")
	bindFlag("plot.width", plotCmd.PersistentFlags().Lookup("width"))
	bindFlag("plot.height", plotCmd.PersistentFlags().Lookup("height"))

	plotLightCurveCmd.Flags().Bool("refined", false, "also draw the refined light curve")

	plotResultsCmd.Flags().String("x", results.KeyLiterature, "field on the x axis")
	plotResultsCmd.Flags().String("y", results.KeyBayesFactor, "field on the y axis")

	plotCmd.AddCommand(plotLightCurveCmd)
	plotCmd.AddCommand(plotResultsCmd)
	plotCmd.AddCommand(plotBayesCmd)
	rootCmd.AddCommand(plotCmd)
}
