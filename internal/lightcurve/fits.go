// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lightcurve

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/astrogo/fitsio"
	"github.com/spf13/cast"

	"github.com/pdiddy/apollo/pkg/types"
)

const (
	defaultTimeColumn = "TIME"
	defaultFluxColumn = "PDCSAP_FLUX"
)

// ErrNoTable is returned when a FITS file holds no binary table HDU.
var ErrNoTable = errors.New("no binary table in FITS file")

// ReadFITS reads time and flux columns from the first binary table in a
// FITS stream. Rows where either value is not finite are dropped: mission
// pipelines mark bad cadences with NaN.
func ReadFITS(r io.Reader, gzipped bool, cfg types.FITSConfig) (types.LightCurve, error) {
	timeCol, fluxCol := cfg.TimeColumn, cfg.FluxColumn
	if timeCol == "" {
		timeCol = defaultTimeColumn
	}
	if fluxCol == "" {
		fluxCol = defaultFluxColumn
	}

	if gzipped {
		zr, err := gzip.NewReader(r)
		if err != nil {
			return types.LightCurve{}, fmt.Errorf("opening gzip stream: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	f, err := fitsio.Open(r)
	if err != nil {
		return types.LightCurve{}, fmt.Errorf("opening FITS: %w", err)
	}
	defer f.Close()

	tbl, err := firstTable(f)
	if err != nil {
		return types.LightCurve{}, err
	}
	for _, name := range []string{timeCol, fluxCol} {
		if tbl.Index(name) < 0 {
			return types.LightCurve{}, fmt.Errorf("table %q has no column %q", tbl.Name(), name)
		}
	}

	rows, err := tbl.Read(0, tbl.NumRows())
	if err != nil {
		return types.LightCurve{}, fmt.Errorf("reading table %q: %w", tbl.Name(), err)
	}
	defer rows.Close()

	var lc types.LightCurve
	for rows.Next() {
		row := map[string]interface{}{timeCol: nil, fluxCol: nil}
		if err := rows.Scan(&row); err != nil {
			return types.LightCurve{}, fmt.Errorf("scanning row: %w", err)
		}
		t, err := cast.ToFloat64E(row[timeCol])
		if err != nil {
			return types.LightCurve{}, fmt.Errorf("column %s: %w", timeCol, err)
		}
		fl, err := cast.ToFloat64E(row[fluxCol])
		if err != nil {
			return types.LightCurve{}, fmt.Errorf("column %s: %w", fluxCol, err)
		}
		if math.IsNaN(t) || math.IsInf(t, 0) || math.IsNaN(fl) || math.IsInf(fl, 0) {
			continue
		}
		lc.Time = append(lc.Time, t)
		lc.Flux = append(lc.Flux, fl)
	}
	if err := rows.Err(); err != nil {
		return types.LightCurve{}, fmt.Errorf("iterating rows: %w", err)
	}
	return lc, nil
}

func firstTable(f *fitsio.File) (*fitsio.Table, error) {
	for _, hdu := range f.HDUs() {
		if tbl, ok := hdu.(*fitsio.Table); ok && tbl.Type() == fitsio.BINARY_TBL {
			return tbl, nil
		}
	}
	return nil, ErrNoTable
}
