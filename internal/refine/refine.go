// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package refine cleans raw light curves for spectral analysis: it removes
// stray flux samples, fills sampling gaps at the dominant cadence and shifts
// the time axis to start at zero.
//
// Every stage is a pure function of its input. Stages never modify the
// slices they are given and share no state, so a single Refiner may be used
// from many goroutines at once.
package refine

import (
	"errors"
	"fmt"
	"math"

	"github.com/pdiddy/apollo/pkg/types"
)

var (
	// ErrInvalidInput reports a light curve that violates a structural
	// invariant: mismatched channel lengths, too few samples, non-finite
	// values, or time that is not strictly increasing.
	ErrInvalidInput = errors.New("invalid light curve")

	// ErrDegenerateData reports flux with no measurable spread. The stray
	// remover absorbs it and returns its input unchanged.
	ErrDegenerateData = errors.New("degenerate flux: zero variance")
)

// Refiner applies the refinement stages with a fixed configuration.
type Refiner struct {
	cfg types.RefineConfig
}

// New returns a Refiner. Zero-valued fields of cfg take their defaults.
func New(cfg types.RefineConfig) *Refiner {
	return &Refiner{cfg: cfg.WithDefaults()}
}

// Config returns the effective configuration.
func (r *Refiner) Config() types.RefineConfig {
	return r.cfg
}

// Stats summarises one Refine call.
type Stats struct {
	InputLen    int     `json:"input_len" yaml:"input_len"`
	OutputLen   int     `json:"output_len" yaml:"output_len"`
	Removed     int     `json:"removed" yaml:"removed"`
	Gaps        int     `json:"gaps" yaml:"gaps"`
	Synthesized int     `json:"synthesized" yaml:"synthesized"`
	Cadence     float64 `json:"cadence" yaml:"cadence"`

	// TimeOffset is the time of the first retained sample, subtracted by
	// zero-referencing.
	TimeOffset float64 `json:"time_offset" yaml:"time_offset"`
	// FluxOffset is the mean subtracted by stray removal.
	FluxOffset float64 `json:"flux_offset" yaml:"flux_offset"`
}

// Refine runs the full pipeline: stray removal, gap interpolation, then
// zero-referencing. Strays are removed before gaps are filled so that
// synthesized samples are never clipped. On error no partial light curve is
// returned.
func (r *Refiner) Refine(lc types.LightCurve) (types.LightCurve, Stats, error) {
	if err := validate(lc, 2); err != nil {
		return types.LightCurve{}, Stats{}, err
	}
	stats := Stats{InputLen: lc.Len()}

	cleaned, mean, err := r.removeStray(lc)
	if err != nil {
		return types.LightCurve{}, Stats{}, fmt.Errorf("removing strays: %w", err)
	}
	stats.Removed = lc.Len() - cleaned.Len()
	stats.FluxOffset = mean

	filled, fill, err := r.interpolate(cleaned)
	if err != nil {
		return types.LightCurve{}, Stats{}, fmt.Errorf("interpolating gaps: %w", err)
	}
	stats.Gaps = fill.gaps
	stats.Synthesized = fill.synthesized
	stats.Cadence = fill.cadence

	stats.TimeOffset = filled.Time[0]
	out, err := SetTimeFromZero(filled)
	if err != nil {
		return types.LightCurve{}, Stats{}, fmt.Errorf("zero-referencing: %w", err)
	}
	stats.OutputLen = out.Len()

	return out, stats, nil
}

// Restore returns a copy of a refined light curve on the axes of its input:
// the time and flux offsets recorded in st are added back.
func Restore(lc types.LightCurve, st Stats) types.LightCurve {
	out := lc.Clone()
	for i := range out.Time {
		out.Time[i] += st.TimeOffset
	}
	for i := range out.Flux {
		out.Flux[i] += st.FluxOffset
	}
	return out
}

// validate checks the structural invariants every stage relies on.
func validate(lc types.LightCurve, minLen int) error {
	if len(lc.Time) != len(lc.Flux) {
		return fmt.Errorf("%w: time has %d samples but flux has %d", ErrInvalidInput, len(lc.Time), len(lc.Flux))
	}
	if len(lc.Time) < minLen {
		return fmt.Errorf("%w: need at least %d samples, got %d", ErrInvalidInput, minLen, len(lc.Time))
	}
	for i := range lc.Time {
		if !isFinite(lc.Time[i]) || !isFinite(lc.Flux[i]) {
			return fmt.Errorf("%w: non-finite value at index %d", ErrInvalidInput, i)
		}
		if i > 0 && lc.Time[i] <= lc.Time[i-1] {
			return fmt.Errorf("%w: time not strictly increasing at index %d", ErrInvalidInput, i)
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
