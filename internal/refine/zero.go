// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package refine

import "github.com/pdiddy/apollo/pkg/types"

// SetTimeFromZero shifts the time axis so that the first sample sits at
// zero. Flux is copied unchanged. Applying it twice gives the same result as
// applying it once.
func SetTimeFromZero(lc types.LightCurve) (types.LightCurve, error) {
	if err := validate(lc, 1); err != nil {
		return types.LightCurve{}, err
	}

	out := lc.Clone()
	t0 := lc.Time[0]
	for i := range out.Time {
		out.Time[i] -= t0
	}
	return out, nil
}
