// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/apollo/internal/results"
	"github.com/pdiddy/apollo/pkg/types"
)

var smallFigure = types.PlotConfig{Width: 4, Height: 3}

func assertWritten(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestLightCurve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lc.png")
	raw := types.LightCurve{Time: []float64{0, 1, 3, 4}, Flux: []float64{1, -1, 2, 0}}
	refined := types.LightCurve{Time: []float64{0, 1, 2, 3, 4}, Flux: []float64{1, -1, 0.5, 2, 0}}

	err := LightCurve(path, "KIC1", smallFigure,
		Curve{Label: "raw", LC: raw},
		Curve{Label: "refined", LC: refined, Line: true},
	)
	require.NoError(t, err)
	assertWritten(t, path)
}

func TestLightCurveEmpty(t *testing.T) {
	err := LightCurve(filepath.Join(t.TempDir(), "lc.png"), "empty", smallFigure, Curve{Label: "raw"})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestScatter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "numax.svg")
	pts := []results.Point{
		{ID: "KIC1", X: 98.2, Y: 101.5, YErr: 2.1},
		{ID: "KIC2", X: 40, Y: 43, YErr: 5},
	}
	require.NoError(t, Scatter(path, "nu_max", "literature", "fit", smallFigure, pts))
	assertWritten(t, path)

	assert.ErrorIs(t, Scatter(path, "", "", "", smallFigure, nil), ErrNoData)
}

func TestBayesFactors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bayes.png")
	rep := results.Report{Results: []results.Result{
		{ID: "KIC1", BayesFactor: results.Measured(12.4, 0.8)},
		{ID: "KIC2", BayesFactor: results.Scalar(-1.5)},
		{ID: "KIC3"},
	}}
	require.NoError(t, BayesFactors(path, types.PlotConfig{}, rep))
	assertWritten(t, path)

	err := BayesFactors(path, smallFigure, results.Report{Results: []results.Result{{ID: "KIC3"}}})
	assert.ErrorIs(t, err, ErrNoData)
}
