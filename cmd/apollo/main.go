// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the apollo CLI: light-curve
// refinement ahead of the Bayesian oscillation fits, and aggregation and
// plotting of the fit results.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/apollo/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the apollo CLI.
var rootCmd = &cobra.Command{
	Use:   "apollo",
	Short: "Light-curve refinement and result tooling for the APOLLO pipeline",
	Long: `apollo prepares stellar light curves for the Bayesian search for
solar-like oscillations and collects what the fits produce.

refine removes stray flux samples, fills sampling gaps at the dominant
cadence and shifts time to start at zero. results indexes the fit result
documents in SQLite; plot draws light curves and result diagnostics.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./apollo.yaml or ~/.config/apollo/config.yaml)")
	pf.Float64("gap-tolerance", 0, "interval, in cadences, above which a gap is filled (default 1.5)")
	pf.Float64("clip-sigma", 0, "sigma-clipping bound for stray removal (default 3)")
	pf.Int("max-clip-iterations", 0, "maximum sigma-clipping passes (default 5)")
	pf.Float64("cadence-resolution", 0, "cadence bin width relative to the median interval (default 1e-6)")
	pf.String("index-dir", "index", "directory holding the SQLite index and exports")
	pf.String("results-dir", "results", "directory holding result JSON documents")

	bindFlag("refine.gap_tolerance", pf.Lookup("gap-tolerance"))
	bindFlag("refine.clip_sigma", pf.Lookup("clip-sigma"))
	bindFlag("refine.max_clip_iterations", pf.Lookup("max-clip-iterations"))
	bindFlag("refine.cadence_resolution", pf.Lookup("cadence-resolution"))
	bindFlag("results.index_dir", pf.Lookup("index-dir"))
	bindFlag("results.results_dir", pf.Lookup("results-dir"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("apollo")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "apollo"))
		}
	}

	viper.SetEnvPrefix("APOLLO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig decodes the merged flags, environment and config file.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding configuration: %w", err)
	}
	cfg.Refine = cfg.Refine.WithDefaults()
	return cfg, nil
}

func bindFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", key, err))
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
