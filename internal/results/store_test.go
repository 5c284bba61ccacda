// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package results

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/apollo/internal/pipeline"
	"github.com/pdiddy/apollo/internal/refine"
	"github.com/pdiddy/apollo/pkg/types"
)

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	tmp := t.TempDir()
	store, err := NewStore(types.ResultsConfig{IndexDir: filepath.Join(tmp, "index")})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	resultsDir := filepath.Join(tmp, "results")
	require.NoError(t, os.MkdirAll(resultsDir, 0o755))
	return store, resultsDir
}

func TestIngestAndList(t *testing.T) {
	store, dir := testStore(t)
	writeResult(t, dir, "KIC1/results.json", detection)
	writeResult(t, dir, "KIC2/results.json", noDetection)
	writeResult(t, dir, "KIC3/results.json", `not json`)

	var log bytes.Buffer
	summary, err := store.Ingest(context.Background(), dir, &log)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Indexed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 3, summary.Total())
	assert.Contains(t, log.String(), "indexed KIC1 (Oscillations)")

	list, err := store.List(context.Background(), ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "KIC1", list[0].ID, "highest Bayes factor first")
	assert.Equal(t, Measured(12.4, 0.8), list[0].BayesFactor)
	assert.Equal(t, Scalar(98.2), list[0].LiteratureValue)
	require.Len(t, list[0].Background, 3)
	assert.InDelta(t, 35.2, list[0].Background["H_osc"].Nominal, 1e-12)

	assert.Equal(t, "KIC2", list[1].ID)
	assert.True(t, list[1].LiteratureValue.IsZero())
	assert.Equal(t, Scalar(0.98), list[1].Background["w"])
}

func TestIngestIsIncremental(t *testing.T) {
	store, dir := testStore(t)
	path := writeResult(t, dir, "KIC1/results.json", detection)

	_, err := store.Ingest(context.Background(), dir, &bytes.Buffer{})
	require.NoError(t, err)

	summary, err := store.Ingest(context.Background(), dir, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Indexed)

	require.NoError(t, os.WriteFile(path, []byte(noDetection), 0o644))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	summary, err = store.Ingest(context.Background(), dir, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Updated)

	list, err := store.List(context.Background(), ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "No oscillations", list[0].Conclusion)
	assert.Len(t, list[0].Background, 2, "stale background parameters are replaced")
}

func TestListFilters(t *testing.T) {
	store, dir := testStore(t)
	writeResult(t, dir, "KIC1/results.json", detection)
	writeResult(t, dir, "KIC2/results.json", noDetection)
	_, err := store.Ingest(context.Background(), dir, &bytes.Buffer{})
	require.NoError(t, err)

	list, err := store.List(context.Background(), ListOptions{Conclusion: "no OSCILLATIONS"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "KIC2", list[0].ID)

	list, err = store.List(context.Background(), ListOptions{MaxResults: 1})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestExport(t *testing.T) {
	store, dir := testStore(t)
	writeResult(t, dir, "KIC1/results.json", detection)
	writeResult(t, dir, "KIC2/results.json", noDetection)
	_, err := store.Ingest(context.Background(), dir, &bytes.Buffer{})
	require.NoError(t, err)

	yamlPath, err := store.ExportYAML(context.Background(), ListOptions{})
	require.NoError(t, err)
	data, err := os.ReadFile(yamlPath)
	require.NoError(t, err)
	var fromYAML []ExportEntry
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	require.Len(t, fromYAML, 2)
	assert.Equal(t, "measured", fromYAML[0].BayesFactor.Kind)
	assert.Nil(t, fromYAML[1].LiteratureValue)

	jsonPath, err := store.ExportJSON(context.Background(), ListOptions{Conclusion: "Oscillations"})
	require.NoError(t, err)
	data, err = os.ReadFile(jsonPath)
	require.NoError(t, err)
	var fromJSON []ExportEntry
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	require.Len(t, fromJSON, 1)
	assert.Equal(t, "KIC1", fromJSON[0].ID)
	assert.InDelta(t, 101.5, fromJSON[0].Background["nu_max"].Nominal, 1e-12)
}

func TestRecordAndRuns(t *testing.T) {
	store, _ := testStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, src := range []string{"a.dat", "b.dat", "a.dat"} {
		run := pipeline.Run{
			ID:        []string{"r1", "r2", "r3"}[i],
			Source:    src,
			Output:    "refined/" + src,
			Stats:     refine.Stats{InputLen: 100, OutputLen: 110, Synthesized: 10, Gaps: 1, Cadence: 0.02, TimeOffset: 131.5, FluxOffset: 2.5},
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, store.Record(context.Background(), run))
	}

	runs, err := store.Runs(context.Background(), "", 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "r3", runs[0].ID, "newest first")
	assert.Equal(t, 110, runs[0].Stats.OutputLen)
	assert.Equal(t, 131.5, runs[0].Stats.TimeOffset)
	assert.Equal(t, 2.5, runs[0].Stats.FluxOffset)
	assert.True(t, runs[0].CreatedAt.Equal(base.Add(2*time.Second)))

	runs, err = store.Runs(context.Background(), "a.dat", 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "r3", runs[0].ID)

	dup := pipeline.Run{ID: "r1", Source: "a.dat", Output: "x", CreatedAt: base}
	assert.Error(t, store.Record(context.Background(), dup))
}
