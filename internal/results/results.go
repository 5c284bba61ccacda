// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package results aggregates the JSON documents written by the Bayesian
// background fits that run on refined light curves, indexes them in SQLite
// and extracts plottable series.
package results

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Series keys that address top-level fields rather than background
// parameters.
const (
	KeyBayesFactor = "bayes_factor"
	KeyLiterature  = "literature"
)

// genericNames are result file names that say nothing about the star; the
// parent directory names the result instead.
var genericNames = map[string]bool{
	"results": true,
	"result":  true,
	"summary": true,
}

// Result is one fit result document.
type Result struct {
	ID              string           `json:"id"`
	Path            string           `json:"path"`
	Conclusion      string           `json:"conclusion"`
	BayesFactor     Value            `json:"bayes_factor"`
	LiteratureValue Value            `json:"literature_value"`
	Background      map[string]Value `json:"background"`
}

// document mirrors the on-disk JSON layout.
type document struct {
	Conclusion      string           `json:"Conclusion"`
	BayesFactor     Value            `json:"Bayes factor"`
	LiteratureValue Value            `json:"Literature value"`
	Background      map[string]Value `json:"Full Background result"`
}

// Parse decodes one result document.
func Parse(r io.Reader) (Result, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Result{}, fmt.Errorf("decoding result: %w", err)
	}
	if doc.Background == nil {
		doc.Background = map[string]Value{}
	}
	return Result{
		Conclusion:      strings.TrimSpace(doc.Conclusion),
		BayesFactor:     doc.BayesFactor,
		LiteratureValue: doc.LiteratureValue,
		Background:      doc.Background,
	}, nil
}

// ParseFile decodes the result document at path and derives its ID.
func ParseFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()

	res, err := Parse(f)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", path, err)
	}
	res.ID = resultID(path)
	res.Path = path
	return res, nil
}

func resultID(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if genericNames[strings.ToLower(base)] {
		if dir := filepath.Base(filepath.Dir(path)); dir != "." && dir != string(filepath.Separator) {
			return dir
		}
	}
	return base
}

// Failure records a result file that could not be read.
type Failure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Report is the aggregate of every result document under a directory.
type Report struct {
	Results []Result  `json:"results"`
	Failed  []Failure `json:"failed,omitempty"`
}

// Aggregate walks dir for *.json result documents. Unreadable documents are
// listed in Report.Failed rather than aborting the walk. Results are sorted
// by ID.
func Aggregate(ctx context.Context, dir string) (Report, error) {
	var rep Report
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".json") {
			return nil
		}
		res, err := ParseFile(path)
		if err != nil {
			rep.Failed = append(rep.Failed, Failure{Path: path, Error: err.Error()})
			return nil
		}
		rep.Results = append(rep.Results, res)
		return nil
	})
	if err != nil {
		return Report{}, fmt.Errorf("walking %s: %w", dir, err)
	}

	sort.Slice(rep.Results, func(i, j int) bool { return rep.Results[i].ID < rep.Results[j].ID })
	return rep, nil
}

// Field returns the value addressed by key: KeyBayesFactor, KeyLiterature,
// or the name of a background parameter.
func (r Result) Field(key string) Value {
	switch key {
	case KeyBayesFactor:
		return r.BayesFactor
	case KeyLiterature:
		return r.LiteratureValue
	default:
		return r.Background[key]
	}
}

// Point is one plottable (x, y) pair with the result it came from.
type Point struct {
	ID   string  `json:"id"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	XErr float64 `json:"x_err"`
	YErr float64 `json:"y_err"`
}

// Series extracts (x, y) pairs from the report. Results missing either
// field are skipped.
func (rep Report) Series(xKey, yKey string) []Point {
	var pts []Point
	for _, r := range rep.Results {
		x, y := r.Field(xKey), r.Field(yKey)
		if x.IsZero() || y.IsZero() {
			continue
		}
		pts = append(pts, Point{
			ID: r.ID,
			X:  x.Nominal, Y: y.Nominal,
			XErr: x.Uncertainty, YErr: y.Uncertainty,
		})
	}
	return pts
}

// Nearest returns the index of the point closest to (x, y), or -1 when pts
// is empty. Distances are measured after scaling each axis by the data
// range so a selection on a plot picks the visually closest point.
func Nearest(pts []Point, x, y float64) int {
	if len(pts) == 0 {
		return -1
	}

	minX, maxX := pts[0].X, pts[0].X
	minY, maxY := pts[0].Y, pts[0].Y
	for _, p := range pts[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	spanX, spanY := maxX-minX, maxY-minY
	if spanX == 0 {
		spanX = 1
	}
	if spanY == 0 {
		spanY = 1
	}

	best, bestDist := -1, math.Inf(1)
	for i, p := range pts {
		dx, dy := (p.X-x)/spanX, (p.Y-y)/spanY
		if d := dx*dx + dy*dy; d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
