// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package searcher

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/retrieval-engine/pkg/types"
)

// RunFile is the on-disk record of a search run: the queries, the settings
// that produced the results, and the results themselves. A run can be saved
// and inspected later without re-running the search.
type RunFile struct {
	Queries []string             `yaml:"queries"`
	Config  RunConfig            `yaml:"config"`
	Results []types.SearchResult `yaml:"results"`
	Summary RunSummary           `yaml:"summary"`
}

// RunConfig stores the search configuration that produced the results.
type RunConfig struct {
	IndexDir      string `yaml:"index_dir"`
	CheckpointDir string `yaml:"checkpoint_dir,omitempty"`
	TopK          int    `yaml:"top_k"`
}

// RunSummary stores run statistics and a timestamp.
type RunSummary struct {
	Queries   int       `yaml:"queries"`
	Hits      int       `yaml:"hits"`
	Timestamp time.Time `yaml:"timestamp"`
}

// WriteRunFile saves a search run to a YAML file.
func WriteRunFile(path string, cfg RunConfig, results []types.SearchResult) error {
	rf := RunFile{
		Config:  cfg,
		Results: results,
		Summary: RunSummary{Queries: len(results), Timestamp: time.Now().UTC()},
	}
	for _, r := range results {
		rf.Queries = append(rf.Queries, r.Query)
		rf.Summary.Hits += len(r.Hits)
	}

	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling run file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing run file: %w", err)
	}
	return nil
}

// ReadRunFile loads a run file written by WriteRunFile.
func ReadRunFile(path string) (RunFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunFile{}, fmt.Errorf("reading run file: %w", err)
	}
	var rf RunFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return RunFile{}, fmt.Errorf("parsing run file: %w", err)
	}
	return rf, nil
}
