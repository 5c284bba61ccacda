// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline refines batches of light-curve files. Each file is
// loaded, refined and written independently, so files are processed in
// parallel by a bounded pool of workers.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/apollo/internal/lightcurve"
	"github.com/pdiddy/apollo/internal/refine"
	"github.com/pdiddy/apollo/pkg/types"
)

const (
	defaultOutputDir = "refined"
	refinedExt       = ".dat"
	reportExt        = ".refine.yaml"
)

// Run records one refined light curve.
type Run struct {
	ID        string             `json:"id" yaml:"id"`
	Source    string             `json:"source" yaml:"source"`
	Output    string             `json:"output" yaml:"output"`
	Stats     refine.Stats       `json:"stats" yaml:"stats"`
	Config    types.RefineConfig `json:"config" yaml:"config"`
	CreatedAt time.Time          `json:"created_at" yaml:"created_at"`
}

// Recorder receives every successful Run, e.g. to index it.
type Recorder interface {
	Record(ctx context.Context, run Run) error
}

// BatchResult holds the outcome of a batch run. Runs are in input order.
type BatchResult struct {
	Refined int
	Failed  int
	Runs    []Run
}

// Total returns the number of files processed.
func (r BatchResult) Total() int {
	return r.Refined + r.Failed
}

// HasFailures reports whether any file failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Pipeline refines light-curve files into an output directory.
type Pipeline struct {
	cfg      types.PipelineConfig
	refiner  *refine.Refiner
	recorder Recorder
	now      func() time.Time
}

// New returns a Pipeline. recorder may be nil.
func New(cfg types.PipelineConfig, r *refine.Refiner, recorder Recorder) *Pipeline {
	if cfg.OutputDir == "" {
		cfg.OutputDir = defaultOutputDir
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Pipeline{
		cfg:      cfg,
		refiner:  r,
		recorder: recorder,
		now:      time.Now,
	}
}

// RefineFile loads path, refines it and writes the refined light curve and
// its YAML report into the output directory. Nothing is written when
// refinement fails.
func (p *Pipeline) RefineFile(ctx context.Context, path string) (Run, error) {
	return p.refineFile(ctx, path, lightcurve.BaseName(path))
}

func (p *Pipeline) refineFile(ctx context.Context, path, base string) (Run, error) {
	lc, err := lightcurve.Load(path, p.cfg.FITS)
	if err != nil {
		return Run{}, err
	}

	refined, stats, err := p.refiner.Refine(lc)
	if err != nil {
		return Run{}, fmt.Errorf("refining %s: %w", path, err)
	}

	run := Run{
		ID:        uuid.NewString(),
		Source:    path,
		Output:    filepath.Join(p.cfg.OutputDir, base+refinedExt),
		Stats:     stats,
		Config:    p.refiner.Config(),
		CreatedAt: p.now().UTC(),
	}

	if err := lightcurve.Save(run.Output, refined); err != nil {
		return Run{}, err
	}
	if err := writeReport(filepath.Join(p.cfg.OutputDir, base+reportExt), run); err != nil {
		return Run{}, err
	}

	if p.recorder != nil {
		if err := p.recorder.Record(ctx, run); err != nil {
			return Run{}, fmt.Errorf("recording run for %s: %w", path, err)
		}
	}
	return run, nil
}

// Run refines every path with at most Workers files in flight, printing
// per-file status to w. A failing file is counted and does not stop the
// others. The returned error is non-nil only when ctx was cancelled.
func (p *Pipeline) Run(ctx context.Context, paths []string, w io.Writer) (BatchResult, error) {
	var (
		mu     sync.Mutex
		result BatchResult
		runs   = make([]*Run, len(paths))
	)

	bases := outputNames(paths)

	g := new(errgroup.Group)
	g.SetLimit(p.cfg.Workers)

	for i, path := range paths {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			run, err := p.refineFile(ctx, path, bases[i])

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				fmt.Fprintf(w, "failed:  %s (%v)\n", path, err)
				result.Failed++
				return nil
			}
			fmt.Fprintf(w, "refined: %s -> %s (%d -> %d samples, %d removed, %d synthesized)\n",
				path, run.Output, run.Stats.InputLen, run.Stats.OutputLen, run.Stats.Removed, run.Stats.Synthesized)
			result.Refined++
			runs[i] = &run
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range runs {
		if r != nil {
			result.Runs = append(result.Runs, *r)
		}
	}

	fmt.Fprintf(w, "\nBatch summary: %d refined, %d failed (total: %d)\n",
		result.Refined, result.Failed, result.Total())
	return result, ctx.Err()
}

// outputNames returns the output base name for each path. Paths sharing a
// base name, such as KIC1.dat and KIC1.fits, get -2, -3, ... suffixes in input
// order so no two files write the same output.
func outputNames(paths []string) []string {
	used := make(map[string]bool, len(paths))
	names := make([]string, len(paths))
	for i, path := range paths {
		base := lightcurve.BaseName(path)
		name := base
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s-%d", base, n)
		}
		used[name] = true
		names[i] = name
	}
	return names
}

// Discover returns the light-curve files directly under dir, sorted by name.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		name := strings.ToLower(e.Name())
		if lightcurve.IsFITS(name) || strings.HasSuffix(name, ".dat") || strings.HasSuffix(name, ".txt") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadReport loads a .refine.yaml report written by RefineFile.
func ReadReport(path string) (Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Run{}, err
	}
	var run Run
	if err := yaml.Unmarshal(data, &run); err != nil {
		return Run{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return run, nil
}

func writeReport(path string, run Run) error {
	data, err := yaml.Marshal(&run)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
