// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build mage

// Package main contains Mage build targets for apollo developer tooling.
package main

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/magefile/mage/sh"
)

// projectDirs lists the working directories the CLI expects.
var projectDirs = []string{
	"data/raw",
	"data/refined",
	"results",
	"index",
	"plots",
}

// Init creates the project directory structure.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "apollo"
	cmdPkg  = "./cmd/apollo"
)

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil {
		version = "dev"
	}
	ldflags := "-X main.version=" + version
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Stats prints Go line counts per package and the number of light curves
// and result documents in the working directories.
func Stats() error {
	pkgs, err := countGoLines(".")
	if err != nil {
		return err
	}
	names := make([]string, 0, len(pkgs))
	for name := range pkgs {
		names = append(names, name)
	}
	sort.Strings(names)

	var prod, test int
	fmt.Printf("%-28s %8s %8s\n", "Package", "Lines", "Tests")
	for _, name := range names {
		c := pkgs[name]
		fmt.Printf("%-28s %8d %8d\n", name, c.prod, c.test)
		prod += c.prod
		test += c.test
	}
	fmt.Printf("%-28s %8d %8d\n\n", "total", prod, test)

	for _, d := range []struct {
		dir  string
		keep func(string) bool
	}{
		{"data/raw", isLightCurve},
		{"data/refined", isLightCurve},
		{"results", func(name string) bool { return strings.HasSuffix(name, ".json") }},
	} {
		n, err := countFiles(d.dir, d.keep)
		if err != nil {
			return err
		}
		fmt.Printf("%-28s %8d files\n", d.dir, n)
	}
	return nil
}

type lineCount struct {
	prod, test int
}

// countGoLines counts non-blank lines of Go files per package directory.
// Directories starting with '.' or '_' are skipped.
func countGoLines(root string) (map[string]lineCount, error) {
	counts := map[string]lineCount{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && (strings.HasPrefix(d.Name(), ".") || strings.HasPrefix(d.Name(), "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}

		n, err := nonBlankLines(path)
		if err != nil {
			return err
		}
		pkg := filepath.ToSlash(filepath.Dir(path))
		c := counts[pkg]
		if strings.HasSuffix(path, "_test.go") {
			c.test += n
		} else {
			c.prod += n
		}
		counts[pkg] = c
		return nil
	})
	return counts, err
}

func nonBlankLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			n++
		}
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	return n, nil
}

// countFiles counts the regular files directly under dir accepted by keep.
// A missing directory counts as empty.
func countFiles(dir string, keep func(string) bool) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", dir, err)
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && keep(strings.ToLower(e.Name())) {
			n++
		}
	}
	return n, nil
}

func isLightCurve(name string) bool {
	for _, ext := range []string{".dat", ".txt", ".fits", ".fit", ".fits.gz"} {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
