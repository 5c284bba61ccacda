// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Refine refines every light curve in data/raw into data/refined.
func Refine() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "refine", "--out", "data/refined", "data/raw")
}

// Results indexes the fit results and draws the Bayes factor chart.
func Results() error {
	mg.Deps(Build)
	bin := filepath.Join(binDir, binName)
	if err := sh.RunV(bin, "results", "ingest"); err != nil {
		return err
	}
	return sh.RunV(bin, "plot", "bayes")
}
