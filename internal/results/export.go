// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package results

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// ExportValue is the flattened form of a Value used in exports.
type ExportValue struct {
	Kind        string  `json:"kind" yaml:"kind"`
	Nominal     float64 `json:"nominal" yaml:"nominal"`
	Uncertainty float64 `json:"uncertainty,omitempty" yaml:"uncertainty,omitempty"`
}

// ExportEntry holds one result for export.
type ExportEntry struct {
	ID              string                 `json:"id" yaml:"id"`
	Path            string                 `json:"path" yaml:"path"`
	Conclusion      string                 `json:"conclusion" yaml:"conclusion"`
	BayesFactor     *ExportValue           `json:"bayes_factor,omitempty" yaml:"bayes_factor,omitempty"`
	LiteratureValue *ExportValue           `json:"literature_value,omitempty" yaml:"literature_value,omitempty"`
	Background      map[string]ExportValue `json:"background,omitempty" yaml:"background,omitempty"`
}

const exportLimit = 100000

// ExportYAML writes the indexed results to indexDir/export.yaml and
// returns the path written.
func (s *Store) ExportYAML(ctx context.Context, opts ListOptions) (string, error) {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	path := filepath.Join(s.indexDir, "export.yaml")
	return path, os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the indexed results to indexDir/export.json and
// returns the path written.
func (s *Store) ExportJSON(ctx context.Context, opts ListOptions) (string, error) {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	path := filepath.Join(s.indexDir, "export.json")
	return path, os.WriteFile(path, data, 0o644)
}

func (s *Store) exportEntries(ctx context.Context, opts ListOptions) ([]ExportEntry, error) {
	if opts.MaxResults <= 0 {
		opts.MaxResults = exportLimit
	}
	list, err := s.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(list))
	for i, r := range list {
		entries[i] = ExportEntry{
			ID:              r.ID,
			Path:            r.Path,
			Conclusion:      r.Conclusion,
			BayesFactor:     exportValue(r.BayesFactor),
			LiteratureValue: exportValue(r.LiteratureValue),
		}
		if len(r.Background) > 0 {
			entries[i].Background = make(map[string]ExportValue, len(r.Background))
			for k, v := range r.Background {
				if ev := exportValue(v); ev != nil {
					entries[i].Background[k] = *ev
				}
			}
		}
	}
	return entries, nil
}

func exportValue(v Value) *ExportValue {
	if v.IsZero() {
		return nil
	}
	return &ExportValue{Kind: v.Kind.String(), Nominal: v.Nominal, Uncertainty: v.Uncertainty}
}
