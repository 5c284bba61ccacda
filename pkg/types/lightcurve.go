// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// LightCurve is a time-ordered series of flux measurements. Time and Flux are
// index aligned: Time[i] is the timestamp of Flux[i].
type LightCurve struct {
	Time []float64 `json:"time" yaml:"time"`
	Flux []float64 `json:"flux" yaml:"flux"`
}

// Len returns the number of samples. It reports the shorter channel when the
// two are mismatched so callers never index past either slice.
func (lc LightCurve) Len() int {
	return min(len(lc.Time), len(lc.Flux))
}

// Clone returns a deep copy of the light curve.
func (lc LightCurve) Clone() LightCurve {
	out := LightCurve{
		Time: make([]float64, len(lc.Time)),
		Flux: make([]float64, len(lc.Flux)),
	}
	copy(out.Time, lc.Time)
	copy(out.Flux, lc.Flux)
	return out
}
