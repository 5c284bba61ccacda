// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lightcurve

import (
	"bytes"
	"compress/gzip"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/astrogo/fitsio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/apollo/pkg/types"
)

type fitsRow struct {
	time float64
	flux float32
}

// kepler rows: two bad cadences flagged with NaN, the way mission products
// mark them.
var keplerRows = []fitsRow{
	{100.0, 10},
	{100.5, 11},
	{math.NaN(), 12},
	{101.5, float32(math.NaN())},
	{102.0, 14},
}

var keplerWant = types.LightCurve{
	Time: []float64{100.0, 100.5, 102.0},
	Flux: []float64{10, 11, 14},
}

// encodeFITS writes a primary HDU followed by a binary table with a float64
// time column and a float32 flux column. With no column names only the
// primary HDU is written.
func encodeFITS(t *testing.T, timeCol, fluxCol string, rows []fitsRow) []byte {
	t.Helper()
	var buf bytes.Buffer

	f, err := fitsio.Create(&buf)
	require.NoError(t, err)

	phdu, err := fitsio.NewPrimaryHDU(nil)
	require.NoError(t, err)
	require.NoError(t, f.Write(phdu))

	if timeCol != "" {
		tbl, err := fitsio.NewTable("LIGHTCURVE", []fitsio.Column{
			{Name: timeCol, Format: "D"},
			{Name: fluxCol, Format: "E"},
		}, fitsio.BINARY_TBL)
		require.NoError(t, err)
		for _, r := range rows {
			tv, fv := r.time, r.flux
			require.NoError(t, tbl.Write(&tv, &fv))
		}
		require.NoError(t, f.Write(tbl))
		require.NoError(t, tbl.Close())
	}

	require.NoError(t, f.Close())
	return buf.Bytes()
}

func writeFITS(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoadFITSDefaultColumns(t *testing.T) {
	path := writeFITS(t, "kplr001.fits", encodeFITS(t, "TIME", "PDCSAP_FLUX", keplerRows))

	lc, err := Load(path, types.FITSConfig{})
	require.NoError(t, err)
	assert.Equal(t, keplerWant, lc)
}

func TestLoadFITSConfiguredColumns(t *testing.T) {
	path := writeFITS(t, "tess.fits", encodeFITS(t, "BTJD", "SAP_FLUX", keplerRows))

	lc, err := Load(path, types.FITSConfig{TimeColumn: "BTJD", FluxColumn: "SAP_FLUX"})
	require.NoError(t, err)
	assert.Equal(t, keplerWant, lc)

	_, err = Load(path, types.FITSConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no column "TIME"`)
}

func TestLoadFITSGzip(t *testing.T) {
	var zipped bytes.Buffer
	zw := gzip.NewWriter(&zipped)
	_, err := zw.Write(encodeFITS(t, "TIME", "PDCSAP_FLUX", keplerRows))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	path := writeFITS(t, "kplr001_llc.fits.gz", zipped.Bytes())
	lc, err := Load(path, types.FITSConfig{})
	require.NoError(t, err)
	assert.Equal(t, keplerWant, lc)
}

func TestReadFITSNoTable(t *testing.T) {
	_, err := ReadFITS(bytes.NewReader(encodeFITS(t, "", "", nil)), false, types.FITSConfig{})
	assert.ErrorIs(t, err, ErrNoTable)
}
