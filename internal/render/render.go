// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render draws light curves and aggregated fit results as PNG, SVG
// or PDF figures. Functions take already-aggregated data and only draw;
// the format follows the file extension.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/pdiddy/apollo/internal/results"
	"github.com/pdiddy/apollo/pkg/types"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("nothing to plot")

// Curve is one light curve drawn on a figure.
type Curve struct {
	Label string
	LC    types.LightCurve
	// Line joins the samples; otherwise they are drawn as points.
	Line bool
}

// LightCurve draws one or more light curves against time.
func LightCurve(path, title string, cfg types.PlotConfig, curves ...Curve) error {
	plt := plot.New()
	plt.Title.Text = title
	plt.X.Label.Text = "time"
	plt.Y.Label.Text = "flux"

	drawn := 0
	for i, c := range curves {
		if c.LC.Len() == 0 {
			continue
		}
		pts := make(plotter.XYs, c.LC.Len())
		for j := range pts {
			pts[j].X = c.LC.Time[j]
			pts[j].Y = c.LC.Flux[j]
		}

		if c.Line {
			l, err := plotter.NewLine(pts)
			if err != nil {
				return fmt.Errorf("building line %q: %w", c.Label, err)
			}
			l.LineStyle.Color = plotutil.Color(i)
			l.LineStyle.Width = vg.Points(0.8)
			plt.Add(l)
			plt.Legend.Add(c.Label, l)
		} else {
			s, err := plotter.NewScatter(pts)
			if err != nil {
				return fmt.Errorf("building scatter %q: %w", c.Label, err)
			}
			s.GlyphStyle.Color = plotutil.Color(i)
			s.GlyphStyle.Radius = vg.Points(1)
			s.GlyphStyle.Shape = draw.CircleGlyph{}
			plt.Add(s)
			plt.Legend.Add(c.Label, s)
		}
		drawn++
	}
	if drawn == 0 {
		return ErrNoData
	}
	plt.Legend.Top = true

	return save(plt, cfg, path)
}

// errPoints carries vertical error bars alongside the points.
type errPoints struct {
	plotter.XYs
	plotter.YErrors
}

// Scatter draws result points with vertical error bars and an ID label next
// to each point, so a point picked with results.Nearest can be found on the
// figure.
func Scatter(path, title, xLabel, yLabel string, cfg types.PlotConfig, pts []results.Point) error {
	if len(pts) == 0 {
		return ErrNoData
	}

	data := errPoints{
		XYs:     make(plotter.XYs, len(pts)),
		YErrors: make(plotter.YErrors, len(pts)),
	}
	labels := make([]string, len(pts))
	for i, p := range pts {
		data.XYs[i].X, data.XYs[i].Y = p.X, p.Y
		data.YErrors[i].Low, data.YErrors[i].High = p.YErr, p.YErr
		labels[i] = p.ID
	}

	plt := plot.New()
	plt.Title.Text = title
	plt.X.Label.Text = xLabel
	plt.Y.Label.Text = yLabel

	s, err := plotter.NewScatter(data.XYs)
	if err != nil {
		return fmt.Errorf("building scatter: %w", err)
	}
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}

	bars, err := plotter.NewYErrorBars(data)
	if err != nil {
		return fmt.Errorf("building error bars: %w", err)
	}

	lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: data.XYs, Labels: labels})
	if err != nil {
		return fmt.Errorf("building labels: %w", err)
	}
	for i := range lbl.TextStyle {
		lbl.TextStyle[i].XAlign = text.XLeft
	}
	lbl.Offset = vg.Point{X: vg.Points(4)}

	plt.Add(bars, s, lbl)
	return save(plt, cfg, path)
}

// BayesFactors draws one bar per result with a Bayes factor.
func BayesFactors(path string, cfg types.PlotConfig, rep results.Report) error {
	var (
		values plotter.Values
		names  []string
	)
	for _, r := range rep.Results {
		if r.BayesFactor.IsZero() {
			continue
		}
		values = append(values, r.BayesFactor.Nominal)
		names = append(names, r.ID)
	}
	if len(values) == 0 {
		return ErrNoData
	}

	plt := plot.New()
	plt.Title.Text = "Bayes factor per star"
	plt.Y.Label.Text = "Bayes factor"

	bars, err := plotter.NewBarChart(values, vg.Points(12))
	if err != nil {
		return fmt.Errorf("building bar chart: %w", err)
	}
	bars.Color = plotutil.Color(0)
	bars.LineStyle.Width = 0

	plt.Add(bars, plotter.NewGrid())
	plt.NominalX(names...)
	return save(plt, cfg, path)
}

func save(plt *plot.Plot, cfg types.PlotConfig, path string) error {
	def := types.DefaultPlotConfig()
	w, h := cfg.Width, cfg.Height
	if w <= 0 {
		w = def.Width
	}
	if h <= 0 {
		h = def.Height
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := plt.Save(vg.Length(w)*vg.Inch, vg.Length(h)*vg.Inch, path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}
