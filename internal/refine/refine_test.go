// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package refine

import (
	"math"
	"math/rand"
	"testing"

	"github.com/montanaflynn/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/apollo/pkg/types"
)

// --- test helpers ---

const (
	testSamples = 5000
	testSpan    = 100.0
)

// linspace returns n evenly spaced values over [lo, hi], endpoints included.
func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

// sineCurve returns a zero-mean sinusoid sampled uniformly over [0, 100].
func sineCurve() types.LightCurve {
	t := linspace(0, testSpan, testSamples)
	f := make([]float64, len(t))
	for i, ti := range t {
		f[i] = math.Sin(2 * math.Pi * ti / 10)
	}
	return types.LightCurve{Time: t, Flux: f}
}

// cut removes samples from..to inclusive.
func cut(lc types.LightCurve, from, to int) types.LightCurve {
	out := types.LightCurve{}
	out.Time = append(append(out.Time, lc.Time[:from]...), lc.Time[to+1:]...)
	out.Flux = append(append(out.Flux, lc.Flux[:from]...), lc.Flux[to+1:]...)
	return out
}

func mean(t *testing.T, v []float64) float64 {
	t.Helper()
	m, err := stats.Mean(v)
	require.NoError(t, err)
	return m
}

func assertStrictlyIncreasing(t *testing.T, v []float64) {
	t.Helper()
	for i := 1; i < len(v); i++ {
		if v[i] <= v[i-1] {
			t.Fatalf("time not strictly increasing at %d: %v <= %v", i, v[i], v[i-1])
		}
	}
}

// --- SetTimeFromZero ---

func TestSetTimeFromZero(t *testing.T) {
	base := sineCurve()
	want, err := SetTimeFromZero(base)
	require.NoError(t, err)

	tests := []struct {
		name   string
		offset float64
	}{
		{"no offset", 0},
		{"large positive offset", 2454833.0},
		{"negative offset", -350.25},
		{"small offset", 1e-3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shifted := base.Clone()
			for i := range shifted.Time {
				shifted.Time[i] += tt.offset
			}

			got, err := SetTimeFromZero(shifted)
			require.NoError(t, err)
			assert.InDelta(t, 0, got.Time[0], 1e-7)
			assert.Equal(t, shifted.Flux, got.Flux)
			for i := range got.Time {
				if math.Abs(got.Time[i]-want.Time[i]) > 1e-7 {
					t.Fatalf("Time[%d] = %v, want %v", i, got.Time[i], want.Time[i])
				}
			}

			again, err := SetTimeFromZero(got)
			require.NoError(t, err)
			assert.InDelta(t, got.Time[0], again.Time[0], 1e-7)
			assert.Equal(t, got, again)
		})
	}
}

func TestSetTimeFromZeroLeavesInputUntouched(t *testing.T) {
	lc := types.LightCurve{Time: []float64{10, 11, 12}, Flux: []float64{1, 2, 3}}
	_, err := SetTimeFromZero(lc)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 11, 12}, lc.Time)
}

func TestSetTimeFromZeroInvalid(t *testing.T) {
	tests := []struct {
		name string
		lc   types.LightCurve
	}{
		{"empty", types.LightCurve{}},
		{"length mismatch", types.LightCurve{Time: []float64{0, 1}, Flux: []float64{1}}},
		{"nan flux", types.LightCurve{Time: []float64{0, 1}, Flux: []float64{1, math.NaN()}}},
		{"infinite time", types.LightCurve{Time: []float64{0, math.Inf(1)}, Flux: []float64{1, 2}}},
		{"duplicate time", types.LightCurve{Time: []float64{0, 1, 1}, Flux: []float64{1, 2, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SetTimeFromZero(tt.lc)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

// --- GetGaps ---

func TestGetGaps(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
	}{
		{"thousand and one samples removed", 3000, 4000},
		{"two samples removed", 3000, 3001},
		{"one sample removed", 3000, 3000},
	}
	r := New(types.RefineConfig{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc := cut(sineCurve(), tt.from, tt.to)

			gaps, cadence, err := r.GetGaps(lc)
			require.NoError(t, err)
			assert.Equal(t, []int{2999}, gaps)
			assert.InDelta(t, testSpan/testSamples, cadence, 1e-5)
		})
	}
}

func TestGetGapsRegularSeries(t *testing.T) {
	r := New(types.RefineConfig{})
	gaps, cadence, err := r.GetGaps(sineCurve())
	require.NoError(t, err)
	assert.Nil(t, gaps)
	assert.InDelta(t, testSpan/testSamples, cadence, 1e-5)
}

func TestGetGapsSeveralGaps(t *testing.T) {
	r := New(types.RefineConfig{})
	lc := cut(cut(sineCurve(), 4000, 4009), 1000, 1004)

	gaps, _, err := r.GetGaps(lc)
	require.NoError(t, err)
	assert.Equal(t, []int{999, 3994}, gaps)
}

func TestGetGapsTolerance(t *testing.T) {
	lc := types.LightCurve{
		Time: []float64{0, 1, 2, 3, 4.4, 5.4, 6.4, 7.4},
		Flux: make([]float64, 8),
	}

	gaps, cadence, err := New(types.RefineConfig{}).GetGaps(lc)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, cadence, 1e-9)
	assert.Nil(t, gaps, "1.4x cadence is inside the default 1.5x tolerance")

	gaps, _, err = New(types.RefineConfig{GapTolerance: 1.2}).GetGaps(lc)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, gaps)
}

func TestGetGapsTiedIntervals(t *testing.T) {
	tests := []struct {
		name string
		time []float64
		want []int
	}{
		{"two unique intervals", []float64{0, 1, 3}, []int{1}},
		{"equal counts", []float64{0, 1, 3, 4, 6, 7, 9}, []int{1, 3, 5}},
		{"tie between two spacings", []float64{0, 2, 4, 5, 6, 10}, []int{0, 1, 4}},
	}
	r := New(types.RefineConfig{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc := types.LightCurve{Time: tt.time, Flux: make([]float64, len(tt.time))}
			gaps, cadence, err := r.GetGaps(lc)
			require.NoError(t, err)
			assert.Equal(t, 1.0, cadence)
			assert.Equal(t, tt.want, gaps)
		})
	}
}

func TestRefineFillsGapAgainstTiedCadence(t *testing.T) {
	lc := types.LightCurve{Time: []float64{0, 1, 3}, Flux: []float64{1, 2, 4}}
	out, st, err := New(types.RefineConfig{}).Refine(lc)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3}, out.Time)
	assert.Equal(t, 1, st.Synthesized)
	assert.Equal(t, 1.0, st.Cadence)
}

func TestGetGapsTooShort(t *testing.T) {
	r := New(types.RefineConfig{})
	_, _, err := r.GetGaps(types.LightCurve{Time: []float64{1}, Flux: []float64{1}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

// --- RemoveStray ---

func TestRemoveStrayReducesNoiseBias(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	lc := sineCurve()
	for i := range lc.Flux {
		lc.Flux[i] += 5 + 8*rng.NormFloat64()
	}
	outliers := []int{250, 1700, 4100}
	for _, i := range outliers {
		lc.Flux[i] = 1000
	}
	rawMean := mean(t, lc.Flux)

	r := New(types.RefineConfig{})
	out, err := r.RemoveStray(lc)
	require.NoError(t, err)

	assert.Greater(t, rawMean, 4.0)
	assert.Less(t, math.Abs(mean(t, out.Flux)), 0.5)
	assert.Equal(t, len(out.Time), len(out.Flux))
	assert.Less(t, out.Len(), lc.Len())
	for _, i := range outliers {
		assert.NotContains(t, out.Time, lc.Time[i])
	}
	assertStrictlyIncreasing(t, out.Time)
}

func TestRemoveStrayZeroVariance(t *testing.T) {
	lc := types.LightCurve{
		Time: []float64{0, 1, 2, 3},
		Flux: []float64{3, 3, 3, 3},
	}
	out, err := New(types.RefineConfig{}).RemoveStray(lc)
	require.NoError(t, err)
	assert.Equal(t, lc, out)
}

func TestRemoveStrayZeroMADUsesStandardDeviation(t *testing.T) {
	lc := types.LightCurve{
		Time: []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
		Flux: []float64{1, 1, 1, 1, 100, 1, 1, 1, 1, 1},
	}
	out, err := New(types.RefineConfig{}).RemoveStray(lc)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3, 5, 6, 7, 8, 9}, out.Time)
	for _, f := range out.Flux {
		assert.InDelta(t, 0, f, 1e-12)
	}
}

func TestRemoveStrayLeavesInputUntouched(t *testing.T) {
	lc := types.LightCurve{
		Time: []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
		Flux: []float64{1, 2, 1, 2, 100, 1, 2, 1, 2, 1},
	}
	before := lc.Clone()
	_, err := New(types.RefineConfig{}).RemoveStray(lc)
	require.NoError(t, err)
	assert.Equal(t, before, lc)
}

// --- Interpolate ---

func TestInterpolateFillsGap(t *testing.T) {
	orig := sineCurve()
	lc := cut(orig, 3000, 4000)

	r := New(types.RefineConfig{})
	out, err := r.Interpolate(lc)
	require.NoError(t, err)

	require.Equal(t, orig.Len(), out.Len())
	assert.Equal(t, len(out.Time), len(out.Flux))
	assertStrictlyIncreasing(t, out.Time)

	wantTime := mean(t, orig.Time[3000:4001])
	assert.InDelta(t, wantTime, mean(t, out.Time[3000:4001]), 1e-7)

	wantFlux := (orig.Flux[2999] + orig.Flux[4001]) / 2
	assert.InDelta(t, wantFlux, mean(t, out.Flux[3000:4001]), 1e-9)

	gaps, _, err := r.GetGaps(out)
	require.NoError(t, err)
	assert.Nil(t, gaps)
}

func TestInterpolateMidpoint(t *testing.T) {
	lc := types.LightCurve{
		Time: []float64{0, 1, 2, 6, 7},
		Flux: []float64{0, 0, 2, 10, 10},
	}
	out, err := New(types.RefineConfig{}).Interpolate(lc)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5, 6, 7}, out.Time)
	assert.Equal(t, []float64{0, 0, 2, 4, 6, 8, 10, 10}, out.Flux)
}

func TestInterpolateNoGaps(t *testing.T) {
	lc := sineCurve()
	out, err := New(types.RefineConfig{}).Interpolate(lc)
	require.NoError(t, err)
	assert.Equal(t, lc, out)
}

// --- Refine ---

func TestRefineEndToEnd(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	orig := sineCurve()
	noisy := orig.Clone()
	quiet := map[int]bool{0: true, 2999: true, 4001: true, testSamples - 1: true}
	for i := range noisy.Flux {
		noisy.Flux[i] += 5
		if !quiet[i] {
			noisy.Flux[i] += 8 * rng.NormFloat64()
		}
	}
	for _, i := range []int{120, 2200, 4500} {
		noisy.Flux[i] = -900
	}
	lc := cut(noisy, 3000, 4000)

	r := New(types.RefineConfig{})
	out, st, err := r.Refine(lc)
	require.NoError(t, err)

	require.Equal(t, testSamples, out.Len())
	assert.Equal(t, len(out.Time), len(out.Flux))
	assert.Equal(t, 0.0, out.Time[0])
	assertStrictlyIncreasing(t, out.Time)
	assert.Less(t, math.Abs(mean(t, out.Flux)), 3.0)

	wantTime := mean(t, orig.Time[3000:4001])
	assert.InDelta(t, wantTime, mean(t, out.Time[3000:4001]), 1e-7)

	wantFlux := (noisy.Flux[2999] + noisy.Flux[4001]) / 2
	assert.InDelta(t, wantFlux, mean(t, out.Flux[3000:4001]), 10.0)
	assert.InDelta(t, (out.Flux[2999]+out.Flux[4001])/2, mean(t, out.Flux[3000:4001]), 1e-9)

	assert.Equal(t, lc.Len(), st.InputLen)
	assert.Equal(t, out.Len(), st.OutputLen)
	assert.GreaterOrEqual(t, st.Removed, 3)
	assert.GreaterOrEqual(t, st.Gaps, 1)
	assert.Equal(t, st.OutputLen-st.InputLen+st.Removed, st.Synthesized)
	assert.InDelta(t, testSpan/testSamples, st.Cadence, 1e-5)
}

func TestRefineRestoreStrayFirstSample(t *testing.T) {
	lc := types.LightCurve{
		Time: linspace(50, 59, 10),
		Flux: []float64{900, 101, 99, 100, 102, 98, 100, 101, 99, 100},
	}

	out, st, err := New(types.RefineConfig{}).Refine(lc)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Removed)
	assert.Equal(t, 51.0, st.TimeOffset)
	assert.InDelta(t, 100.0, st.FluxOffset, 1e-9)

	restored := Restore(out, st)
	assert.Equal(t, lc.Time[1:], restored.Time)
	assert.InDeltaSlice(t, lc.Flux[1:], restored.Flux, 1e-9)
	assert.Equal(t, 0.0, out.Time[0], "Restore must not modify its input")
}

func TestRefineRejectsInvalidInput(t *testing.T) {
	r := New(types.RefineConfig{})
	_, _, err := r.Refine(types.LightCurve{Time: []float64{0, 1, 2}, Flux: []float64{1, 2}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = r.Refine(types.LightCurve{Time: []float64{0}, Flux: []float64{1}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNewAppliesDefaults(t *testing.T) {
	got := New(types.RefineConfig{ClipSigma: 4}).Config()
	def := types.DefaultRefineConfig()
	assert.Equal(t, 4.0, got.ClipSigma)
	assert.Equal(t, def.GapTolerance, got.GapTolerance)
	assert.Equal(t, def.MaxClipIterations, got.MaxClipIterations)
	assert.Equal(t, def.CadenceResolution, got.CadenceResolution)
}
