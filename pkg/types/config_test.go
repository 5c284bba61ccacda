// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRefineConfigWithDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   RefineConfig
		want RefineConfig
	}{
		{"zero", RefineConfig{}, DefaultRefineConfig()},
		{"negative", RefineConfig{GapTolerance: -1, ClipSigma: -2, MaxClipIterations: -3, CadenceResolution: -4}, DefaultRefineConfig()},
		{
			"kept",
			RefineConfig{GapTolerance: 2, ClipSigma: 4, MaxClipIterations: 10, CadenceResolution: 1e-3},
			RefineConfig{GapTolerance: 2, ClipSigma: 4, MaxClipIterations: 10, CadenceResolution: 1e-3},
		},
		{
			"partial",
			RefineConfig{ClipSigma: 5},
			RefineConfig{GapTolerance: 1.5, ClipSigma: 5, MaxClipIterations: 5, CadenceResolution: 1e-6},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.WithDefaults())
		})
	}
}

func TestLightCurveClone(t *testing.T) {
	lc := LightCurve{Time: []float64{0, 1, 2}, Flux: []float64{5, 6, 7}}
	c := lc.Clone()
	c.Time[0], c.Flux[0] = 99, 99

	assert.Equal(t, 0.0, lc.Time[0])
	assert.Equal(t, 5.0, lc.Flux[0])
	assert.Equal(t, 3, c.Len())
}

func TestLightCurveLenMismatched(t *testing.T) {
	lc := LightCurve{Time: []float64{0, 1, 2}, Flux: []float64{5}}
	assert.Equal(t, 1, lc.Len())
}
