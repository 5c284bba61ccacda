// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package refine

import (
	"errors"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/pdiddy/apollo/pkg/types"
)

// madToSigma converts a median absolute deviation to the standard deviation
// of a normal distribution.
const madToSigma = 1.4826

// RemoveStray sigma-clips the flux around its median and drops rejected
// samples together with their timestamps. Clipping repeats until no sample is
// rejected or MaxClipIterations passes have run. Flux with zero variance is
// returned unchanged.
//
// The retained flux is centred on zero by subtracting its mean. This removes
// a constant noise offset, so the mean of the result tends to zero rather
// than to the mean of the noise-free signal: a light curve in absolute
// units (e-/s) comes back as variations about zero. Refine reports the
// subtracted mean as Stats.FluxOffset and Restore adds it back.
func (r *Refiner) RemoveStray(lc types.LightCurve) (types.LightCurve, error) {
	out, _, err := r.removeStray(lc)
	return out, err
}

// removeStray is RemoveStray that also returns the subtracted mean.
func (r *Refiner) removeStray(lc types.LightCurve) (types.LightCurve, float64, error) {
	if err := validate(lc, 1); err != nil {
		return types.LightCurve{}, 0, err
	}

	keep := make([]int, lc.Len())
	for i := range keep {
		keep[i] = i
	}

	for pass := 0; pass < r.cfg.MaxClipIterations; pass++ {
		vals := gather(lc.Flux, keep)
		center, sigma, err := robustSpread(vals)
		if errors.Is(err, ErrDegenerateData) {
			if pass == 0 {
				return lc.Clone(), 0, nil
			}
			break
		}
		if err != nil {
			return types.LightCurve{}, 0, err
		}

		bound := r.cfg.ClipSigma * sigma
		next := make([]int, 0, len(keep))
		for _, i := range keep {
			if math.Abs(lc.Flux[i]-center) <= bound {
				next = append(next, i)
			}
		}
		if len(next) == len(keep) {
			break
		}
		keep = next
	}

	out := types.LightCurve{
		Time: gather(lc.Time, keep),
		Flux: gather(lc.Flux, keep),
	}
	mean, err := stats.Mean(out.Flux)
	if err != nil {
		return types.LightCurve{}, 0, err
	}
	for i := range out.Flux {
		out.Flux[i] -= mean
	}
	return out, mean, nil
}

// robustSpread returns the median of vals and its noise level, estimated
// from the median absolute deviation. If the MAD vanishes but the values
// still vary, the standard deviation is used instead.
func robustSpread(vals []float64) (center, sigma float64, err error) {
	center, err = stats.Median(vals)
	if err != nil {
		return 0, 0, err
	}
	mad, err := stats.MedianAbsoluteDeviationPopulation(vals)
	if err != nil {
		return 0, 0, err
	}
	sigma = madToSigma * mad
	if sigma == 0 {
		sigma, err = stats.StandardDeviation(vals)
		if err != nil {
			return 0, 0, err
		}
	}
	if sigma == 0 {
		return center, 0, ErrDegenerateData
	}
	return center, sigma, nil
}

func gather(src []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for j, i := range idx {
		out[j] = src[i]
	}
	return out
}
