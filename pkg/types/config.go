// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// RefineConfig holds the tunables of the refinement pipeline.
type RefineConfig struct {
	// GapTolerance is the multiple of the cadence above which a sampling
	// interval counts as a gap (default 1.5).
	GapTolerance float64 `json:"gap_tolerance" yaml:"gap_tolerance" mapstructure:"gap_tolerance"`

	// ClipSigma is the sigma-clipping bound in units of the estimated noise
	// level (default 3).
	ClipSigma float64 `json:"clip_sigma" yaml:"clip_sigma" mapstructure:"clip_sigma"`

	// MaxClipIterations caps the number of clipping passes (default 5).
	MaxClipIterations int `json:"max_clip_iterations" yaml:"max_clip_iterations" mapstructure:"max_clip_iterations"`

	// CadenceResolution is the bin width used when taking the mode of the
	// sampling intervals, relative to the median interval (default 1e-6).
	CadenceResolution float64 `json:"cadence_resolution" yaml:"cadence_resolution" mapstructure:"cadence_resolution"`
}

// DefaultRefineConfig returns the refinement settings used when a field is
// left at its zero value.
func DefaultRefineConfig() RefineConfig {
	return RefineConfig{
		GapTolerance:      1.5,
		ClipSigma:         3,
		MaxClipIterations: 5,
		CadenceResolution: 1e-6,
	}
}

// WithDefaults returns a copy of c with every non-positive field replaced by
// its default.
func (c RefineConfig) WithDefaults() RefineConfig {
	def := DefaultRefineConfig()
	if c.GapTolerance <= 0 {
		c.GapTolerance = def.GapTolerance
	}
	if c.ClipSigma <= 0 {
		c.ClipSigma = def.ClipSigma
	}
	if c.MaxClipIterations <= 0 {
		c.MaxClipIterations = def.MaxClipIterations
	}
	if c.CadenceResolution <= 0 {
		c.CadenceResolution = def.CadenceResolution
	}
	return c
}

// FITSConfig names the binary-table columns read from FITS light curves.
type FITSConfig struct {
	// TimeColumn is the time column name (default "TIME").
	TimeColumn string `json:"time_column" yaml:"time_column" mapstructure:"time_column"`

	// FluxColumn is the flux column name (default "PDCSAP_FLUX").
	FluxColumn string `json:"flux_column" yaml:"flux_column" mapstructure:"flux_column"`
}

// PipelineConfig holds settings for batch refinement.
type PipelineConfig struct {
	FITS FITSConfig `json:"fits" yaml:"fits" mapstructure:"fits"`

	// OutputDir receives refined light curves and their .refine.yaml reports.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// Workers bounds the number of light curves refined concurrently
	// (default: number of CPUs).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`
}

// ResultsConfig holds settings for APOLLO result aggregation.
type ResultsConfig struct {
	// ResultsDir is the directory walked for result JSON documents.
	ResultsDir string `json:"results_dir" yaml:"results_dir" mapstructure:"results_dir"`

	// IndexDir holds the SQLite database and exports.
	IndexDir string `json:"index_dir" yaml:"index_dir" mapstructure:"index_dir"`

	// MaxResults is the default number of rows returned by list (default 50).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// DefaultPlotConfig returns the figure size used when none is configured.
func DefaultPlotConfig() PlotConfig {
	return PlotConfig{Width: 12, Height: 5}
}

// PlotConfig holds figure dimensions in inches.
type PlotConfig struct {
	Width  float64 `json:"width" yaml:"width" mapstructure:"width"`
	Height float64 `json:"height" yaml:"height" mapstructure:"height"`
}

// Config groups all settings read from apollo.yaml.
type Config struct {
	Refine   RefineConfig   `json:"refine" yaml:"refine" mapstructure:"refine"`
	Pipeline PipelineConfig `json:"pipeline" yaml:"pipeline" mapstructure:"pipeline"`
	Results  ResultsConfig  `json:"results" yaml:"results" mapstructure:"results"`
	Plot     PlotConfig     `json:"plot" yaml:"plot" mapstructure:"plot"`
}
