// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package searcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/retrieval-engine/internal/corpus"
	"github.com/pdiddy/retrieval-engine/internal/index"
	"github.com/pdiddy/retrieval-engine/internal/store"
	"github.com/pdiddy/retrieval-engine/pkg/types"
)

// fakeEncoder returns a fixed vector per known text, which makes rankings
// exact instead of depending on trained weights.
type fakeEncoder struct {
	dim  int
	vecs map[string][]float32
}

func (f *fakeEncoder) Dimension() int { return f.dim }

func (f *fakeEncoder) EncodeQueries(_ context.Context, queries []string) ([][]float32, error) {
	out := make([][]float32, len(queries))
	for i, q := range queries {
		vec, ok := f.vecs[q]
		if !ok {
			return nil, fmt.Errorf("no fixture vector for query %q", q)
		}
		out[i] = vec
	}
	return out, nil
}

func (f *fakeEncoder) EncodePassages(_ context.Context, passages []types.Passage) ([][]float32, error) {
	out := make([][]float32, len(passages))
	for i, p := range passages {
		vec, ok := f.vecs[p.Text]
		if !ok {
			return nil, fmt.Errorf("no fixture vector for passage %q", p.ID)
		}
		out[i] = vec
	}
	return out, nil
}

var testPassages = []types.Passage{
	{ID: "p1", Title: "Paris", Text: "Paris is the capital of France."},
	{ID: "p2", Title: "Eiffel Tower", Text: "The Eiffel Tower stands in Paris."},
	{ID: "p3", Title: "Aaron", Text: "Aaron was a prophet."},
}

func newFakeEncoder() *fakeEncoder {
	return &fakeEncoder{
		dim: 3,
		// Power-of-two fractions are exact in float32, so scores print
		// without rounding noise.
		vecs: map[string][]float32{
			"capital of france":                 {0.875, 0.5, 0.125},
			"who was aaron":                     {0.125, 0.25, 0.875},
			"Paris is the capital of France.":   {1, 0, 0},
			"The Eiffel Tower stands in Paris.": {0, 1, 0},
			"Aaron was a prophet.":              {0, 0, 1},
		},
	}
}

// buildIndexDir writes vectors.bin plus either the passage database or the
// gzip record file into a temp dir.
func buildIndexDir(t *testing.T, withStore bool) string {
	t.Helper()
	dir := t.TempDir()

	enc := newFakeEncoder()
	ids := make([]string, len(testPassages))
	vecs := make([][]float32, len(testPassages))
	for i, p := range testPassages {
		ids[i] = p.ID
		vecs[i] = enc.vecs[p.Text]
	}
	var flat index.Flat
	require.NoError(t, flat.Build(ids, vecs))
	require.NoError(t, flat.Save(filepath.Join(dir, index.VectorsFile)))

	if withStore {
		st, err := store.Open(filepath.Join(dir, index.StoreFile))
		require.NoError(t, err)
		require.NoError(t, st.Put(context.Background(), testPassages))
		require.NoError(t, st.Close())
	} else {
		require.NoError(t, corpus.WriteRecords(filepath.Join(dir, index.RecordsFile), testPassages))
	}
	return dir
}

func TestSearcher_Search(t *testing.T) {
	s, err := Open(newFakeEncoder(), buildIndexDir(t, true))
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, 3, s.Len())

	results, err := s.Search(context.Background(), []string{"capital of france"}, 2)
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, "capital of france", res.Query)
	require.Len(t, res.Hits, 2)

	assert.Equal(t, "p1", res.Hits[0].DocID)
	assert.Equal(t, "Paris", res.Hits[0].Title)
	assert.Equal(t, "Paris is the capital of France.", res.Hits[0].Text)
	assert.Equal(t, 0.875, res.Hits[0].Score)

	assert.Equal(t, "p2", res.Hits[1].DocID)
	assert.Equal(t, 0.5, res.Hits[1].Score)
}

func TestSearcher_SearchMultipleQueries(t *testing.T) {
	s, err := Open(newFakeEncoder(), buildIndexDir(t, true))
	require.NoError(t, err)
	defer s.Close()

	results, err := s.Search(context.Background(), []string{"capital of france", "who was aaron"}, 1)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "p1", results[0].Hits[0].DocID)
	assert.Equal(t, "p3", results[1].Hits[0].DocID)
}

func TestSearcher_RecordsFallback(t *testing.T) {
	s, err := Open(newFakeEncoder(), buildIndexDir(t, false))
	require.NoError(t, err)
	defer s.Close()

	results, err := s.Search(context.Background(), []string{"who was aaron"}, 1)
	require.NoError(t, err)
	require.Len(t, results[0].Hits, 1)
	assert.Equal(t, "p3", results[0].Hits[0].DocID)
	assert.Equal(t, "Aaron", results[0].Hits[0].Title)
}

func TestSearcher_MissingPassageRecord(t *testing.T) {
	dir := t.TempDir()

	var flat index.Flat
	require.NoError(t, flat.Build([]string{"ghost"}, [][]float32{{1, 0, 0}}))
	require.NoError(t, flat.Save(filepath.Join(dir, index.VectorsFile)))

	st, err := store.Open(filepath.Join(dir, index.StoreFile))
	require.NoError(t, err)
	require.NoError(t, st.Close())

	s, err := Open(newFakeEncoder(), dir)
	require.NoError(t, err)
	defer s.Close()

	results, err := s.Search(context.Background(), []string{"capital of france"}, 1)
	require.NoError(t, err)
	require.Len(t, results[0].Hits, 1)
	assert.Equal(t, "ghost", results[0].Hits[0].DocID)
	assert.Empty(t, results[0].Hits[0].Title)
	assert.Empty(t, results[0].Hits[0].Text)
}

func TestOpen_DimensionMismatch(t *testing.T) {
	dir := buildIndexDir(t, true)

	_, err := Open(&fakeEncoder{dim: 7}, dir)
	assert.ErrorContains(t, err, "encoder dimension 7 does not match index dimension 3")
}

func TestSearcher_NoQueries(t *testing.T) {
	s, err := Open(newFakeEncoder(), buildIndexDir(t, true))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Search(context.Background(), nil, 5)
	assert.ErrorContains(t, err, "no queries")
}

func TestSearchFile(t *testing.T) {
	s, err := Open(newFakeEncoder(), buildIndexDir(t, true))
	require.NoError(t, err)
	defer s.Close()

	dir := t.TempDir()
	queryPath := filepath.Join(dir, "queries.tsv")
	require.NoError(t, os.WriteFile(queryPath,
		[]byte("q1\tcapital of france\nq2\twho was aaron\n"), 0o644))
	outPath := filepath.Join(dir, "ranking.tsv")

	n, err := s.SearchFile(context.Background(), queryPath, outPath, 2, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	want := "q1\tp1\t1\t0.875\n" +
		"q1\tp2\t2\t0.5\n" +
		"q2\tp3\t1\t0.875\n" +
		"q2\tp2\t2\t0.25\n"
	assert.Equal(t, want, string(data))
}

func TestRunFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	cfg := RunConfig{IndexDir: "index", CheckpointDir: "checkpoints/final", TopK: 2}
	results := []types.SearchResult{
		{Query: "capital of france", Hits: []types.SearchHit{
			{DocID: "p1", Title: "Paris", Text: "Paris is the capital of France.", Score: 0.9},
		}},
	}

	require.NoError(t, WriteRunFile(path, cfg, results))

	rf, err := ReadRunFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, rf.Config)
	assert.Equal(t, []string{"capital of france"}, rf.Queries)
	assert.Equal(t, results, rf.Results)
	assert.Equal(t, 1, rf.Summary.Queries)
	assert.Equal(t, 1, rf.Summary.Hits)
	assert.False(t, rf.Summary.Timestamp.IsZero())
}
