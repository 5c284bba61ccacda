// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package lightcurve reads and writes light curves: two-column text files
// (time, flux) and FITS binary tables such as Kepler and TESS products.
package lightcurve

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdiddy/apollo/pkg/types"
)

const maxLineBytes = 1 << 20

// Read parses whitespace-delimited text with time in the first column and
// flux in the second. Blank lines and lines starting with '#' are skipped;
// columns after the second are ignored.
func Read(r io.Reader) (types.LightCurve, error) {
	var lc types.LightCurve

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) < 2 {
			return types.LightCurve{}, fmt.Errorf("line %d: want time and flux columns, got %d field(s)", line, len(fields))
		}
		t, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return types.LightCurve{}, fmt.Errorf("line %d: parsing time: %w", line, err)
		}
		f, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return types.LightCurve{}, fmt.Errorf("line %d: parsing flux: %w", line, err)
		}
		lc.Time = append(lc.Time, t)
		lc.Flux = append(lc.Flux, f)
	}
	if err := sc.Err(); err != nil {
		return types.LightCurve{}, fmt.Errorf("reading light curve: %w", err)
	}
	return lc, nil
}

// Write emits lc as two whitespace-separated columns.
func Write(w io.Writer, lc types.LightCurve) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < lc.Len(); i++ {
		if _, err := fmt.Fprintf(bw, "%.10g %.10g\n", lc.Time[i], lc.Flux[i]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Load reads the light curve at path. Files named *.fits, *.fit or
// *.fits.gz are read as FITS tables using cfg; anything else as text.
func Load(path string, cfg types.FITSConfig) (types.LightCurve, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.LightCurve{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var lc types.LightCurve
	if IsFITS(path) {
		lc, err = ReadFITS(f, strings.HasSuffix(strings.ToLower(path), ".gz"), cfg)
	} else {
		lc, err = Read(f)
	}
	if err != nil {
		return types.LightCurve{}, fmt.Errorf("%s: %w", path, err)
	}
	return lc, nil
}

// Save writes lc as text to path, creating parent directories.
func Save(path string, lc types.LightCurve) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Write(f, lc); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// IsFITS reports whether path names a FITS file.
func IsFITS(path string) bool {
	p := strings.ToLower(path)
	return strings.HasSuffix(p, ".fits") || strings.HasSuffix(p, ".fit") || strings.HasSuffix(p, ".fits.gz")
}

// BaseName strips the directory and any light-curve extension from path.
func BaseName(path string) string {
	base := filepath.Base(path)
	lower := strings.ToLower(base)
	for _, ext := range []string{".fits.gz", ".fits", ".fit", ".dat", ".txt", ".csv"} {
		if strings.HasSuffix(lower, ext) {
			return base[:len(base)-len(ext)]
		}
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
