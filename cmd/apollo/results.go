// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/apollo/internal/results"
	"github.com/pdiddy/apollo/pkg/types"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Index, list and export APOLLO fit results",
	Long: `Results manages a local SQLite index of the JSON result documents the
Bayesian fits write (Conclusion, Bayes factor, Literature value and the
Full Background result parameters). Use subcommands to index, query or
export.`,
}

// --- ingest subcommand ---

var resultsIngestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Index result documents into the SQLite store",
	Long: `Ingest walks the results directory for *.json documents and upserts
them into the index. Documents unchanged since the last run are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResultsIngest,
}

func runResultsIngest(cmd *cobra.Command, args []string) error {
	cfg, err := resultsConfig(args)
	if err != nil {
		return err
	}

	store, err := results.NewStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(context.Background(), cfg.ResultsDir, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d result document(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- list subcommand ---

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed results by Bayes factor",
	RunE:  runResultsList,
}

func runResultsList(cmd *cobra.Command, args []string) error {
	cfg, err := resultsConfig(nil)
	if err != nil {
		return err
	}
	store, err := results.NewStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	list, err := store.List(context.Background(), listOptsFromFlags(cmd))
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	if len(list) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("%-24s  %-16s  %-18s  %s\n", "ID", "Conclusion", "Bayes factor", "Literature")
	fmt.Println(strings.Repeat("-", 80))
	for _, r := range list {
		id := r.ID
		if len(id) > 24 {
			id = id[:21] + "..."
		}
		fmt.Printf("%-24s  %-16s  %-18s  %s\n", id, r.Conclusion, r.BayesFactor, r.LiteratureValue)
	}
	fmt.Printf("\n%d results\n", len(list))
	return nil
}

// --- export subcommand ---

var resultsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export indexed results to YAML or JSON",
	Long: `Export writes the indexed results (or a filtered subset) to
<index-dir>/export.yaml or export.json.`,
	RunE: runResultsExport,
}

func runResultsExport(cmd *cobra.Command, args []string) error {
	cfg, err := resultsConfig(nil)
	if err != nil {
		return err
	}
	store, err := results.NewStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := listOptsFromFlags(cmd)
	format, _ := cmd.Flags().GetString("format")

	var path string
	switch strings.ToLower(format) {
	case "yaml", "yml":
		path, err = store.ExportYAML(context.Background(), opts)
	case "json":
		path, err = store.ExportJSON(context.Background(), opts)
	default:
		return fmt.Errorf("unknown export format %q (want yaml or json)", format)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Exported to %s\n", path)
	return nil
}

// --- nearest subcommand ---

var resultsNearestCmd = &cobra.Command{
	Use:   "nearest <x> <y>",
	Short: "Find the result closest to a point in a scatter of two fields",
	Long: `Nearest aggregates the result documents, plots --x against --y as in
"apollo plot results", and prints the result whose point lies closest to
(x, y) with both axes scaled to their data range.`,
	Args: cobra.ExactArgs(2),
	RunE: runResultsNearest,
}

func runResultsNearest(cmd *cobra.Command, args []string) error {
	x, err := parseCoordinate(args[0])
	if err != nil {
		return err
	}
	y, err := parseCoordinate(args[1])
	if err != nil {
		return err
	}

	cfg, err := resultsConfig(nil)
	if err != nil {
		return err
	}
	rep, err := results.Aggregate(context.Background(), cfg.ResultsDir)
	if err != nil {
		return err
	}

	xKey, _ := cmd.Flags().GetString("x")
	yKey, _ := cmd.Flags().GetString("y")
	pts := rep.Series(xKey, yKey)
	i := results.Nearest(pts, x, y)
	if i < 0 {
		return fmt.Errorf("no result has both %s and %s", xKey, yKey)
	}

	for _, r := range rep.Results {
		if r.ID != pts[i].ID {
			continue
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	return nil
}

func parseCoordinate(s string) (float64, error) {
	v, err := results.ParseValue(s)
	if err != nil {
		return 0, fmt.Errorf("coordinate %q: %w", s, err)
	}
	return v.Nominal, nil
}

// resultsConfig returns the results settings with the positional results
// directory, when given, taking precedence.
func resultsConfig(args []string) (types.ResultsConfig, error) {
	cfg, err := loadConfig()
	if err != nil {
		return types.ResultsConfig{}, err
	}
	if len(args) > 0 {
		cfg.Results.ResultsDir = args[0]
	}
	return cfg.Results, nil
}

func listOptsFromFlags(cmd *cobra.Command) results.ListOptions {
	conclusion, _ := cmd.Flags().GetString("conclusion")
	limit, _ := cmd.Flags().GetInt("limit")
	return results.ListOptions{Conclusion: conclusion, MaxResults: limit}
}

func init() {
	for _, c := range []*cobra.Command{resultsListCmd, resultsExportCmd} {
		c.Flags().String("conclusion", "", "keep only results with this conclusion")
		c.Flags().Int("limit", 0, "maximum results (0 = configured default)")
	}
	resultsListCmd.Flags().Bool("json", false, "output as JSON")
	resultsExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	resultsNearestCmd.Flags().String("x", results.KeyLiterature, "field on the x axis")
	resultsNearestCmd.Flags().String("y", results.KeyBayesFactor, "field on the y axis")

	resultsCmd.AddCommand(resultsIngestCmd)
	resultsCmd.AddCommand(resultsListCmd)
	resultsCmd.AddCommand(resultsExportCmd)
	resultsCmd.AddCommand(resultsNearestCmd)
	rootCmd.AddCommand(resultsCmd)
}
