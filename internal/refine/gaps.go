// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package refine

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/pdiddy/apollo/pkg/types"
)

// GetGaps returns the indices i where the interval Time[i+1]-Time[i] exceeds
// the dominant cadence by more than the configured tolerance, together with
// that cadence. A regularly sampled light curve yields a nil gap slice; this
// is the no-gap result, not an error.
func (r *Refiner) GetGaps(lc types.LightCurve) ([]int, float64, error) {
	if err := validate(lc, 2); err != nil {
		return nil, 0, err
	}

	diffs := differences(lc.Time)
	cadence, err := r.cadence(diffs)
	if err != nil {
		return nil, 0, err
	}

	limit := cadence * r.cfg.GapTolerance
	var gaps []int
	for i, d := range diffs {
		if d > limit {
			gaps = append(gaps, i)
		}
	}
	return gaps, cadence, nil
}

// cadence returns the most frequent sampling interval. Intervals are first
// binned at a fraction of the median interval so that rounding noise in a
// uniform time grid does not split one cadence into many distinct values;
// the cadence is the mean of the intervals in the fullest bin. Ties go to
// the bin of the shortest intervals.
func (r *Refiner) cadence(diffs []float64) (float64, error) {
	median, err := stats.Median(diffs)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	quantum := median * r.cfg.CadenceResolution
	bins := make([]float64, len(diffs))
	for i, d := range diffs {
		bins[i] = math.Round(d / quantum)
	}
	order := make([]int, len(diffs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return bins[order[a]] < bins[order[b]] })

	// Counted here: stats.Mode returns no mode when all counts are equal.
	var best []float64
	for i := 0; i < len(order); {
		j := i
		for j < len(order) && bins[order[j]] == bins[order[i]] {
			j++
		}
		if j-i > len(best) {
			best = best[:0]
			for _, k := range order[i:j] {
				best = append(best, diffs[k])
			}
		}
		i = j
	}
	return stats.Mean(best)
}

func differences(t []float64) []float64 {
	d := make([]float64, len(t)-1)
	for i := range d {
		d[i] = t[i+1] - t[i]
	}
	return d
}
