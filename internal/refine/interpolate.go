// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package refine

import (
	"math"

	"github.com/pdiddy/apollo/pkg/types"
)

// fillSummary describes what interpolate added.
type fillSummary struct {
	gaps        int
	synthesized int
	cadence     float64
}

// Interpolate fills every detected gap with samples spaced evenly at close to
// the dominant cadence, with flux linearly interpolated between the two
// samples bounding the gap. A light curve without gaps is returned as an
// unchanged copy.
func (r *Refiner) Interpolate(lc types.LightCurve) (types.LightCurve, error) {
	out, _, err := r.interpolate(lc)
	return out, err
}

func (r *Refiner) interpolate(lc types.LightCurve) (types.LightCurve, fillSummary, error) {
	gaps, cadence, err := r.GetGaps(lc)
	if err != nil {
		return types.LightCurve{}, fillSummary{}, err
	}
	summary := fillSummary{gaps: len(gaps), cadence: cadence}
	if gaps == nil {
		return lc.Clone(), summary, nil
	}

	fills := make([]int, len(gaps))
	for j, i := range gaps {
		fills[j] = missingSamples(lc.Time[i+1]-lc.Time[i], cadence)
		summary.synthesized += fills[j]
	}

	n := lc.Len() + summary.synthesized
	out := types.LightCurve{
		Time: make([]float64, 0, n),
		Flux: make([]float64, 0, n),
	}

	next := 0
	for j, i := range gaps {
		out.Time = append(out.Time, lc.Time[next:i+1]...)
		out.Flux = append(out.Flux, lc.Flux[next:i+1]...)
		next = i + 1

		t0, t1 := lc.Time[i], lc.Time[i+1]
		f0, f1 := lc.Flux[i], lc.Flux[i+1]
		steps := float64(fills[j] + 1)
		for k := 1; k <= fills[j]; k++ {
			frac := float64(k) / steps
			out.Time = append(out.Time, t0+(t1-t0)*frac)
			out.Flux = append(out.Flux, f0+(f1-f0)*frac)
		}
	}
	out.Time = append(out.Time, lc.Time[next:]...)
	out.Flux = append(out.Flux, lc.Flux[next:]...)

	return out, summary, nil
}

// missingSamples returns how many samples fit inside an interval of width d
// at the given cadence.
func missingSamples(d, cadence float64) int {
	return max(int(math.Round(d/cadence))-1, 0)
}
