// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/retrieval-engine/internal/corpus"
	"github.com/pdiddy/retrieval-engine/internal/encoder"
	"github.com/pdiddy/retrieval-engine/internal/store"
	"github.com/pdiddy/retrieval-engine/pkg/types"
)

// File names inside an index directory.
const (
	RecordsFile = "passages.json.gz"
	VectorsFile = "vectors.bin"
	StoreFile   = "passages.db"
	cacheFile   = "cache.db"
)

// encodeBatch is the number of cache misses encoded per call. Remote
// encoders amortize one HTTP round trip per batch.
const encodeBatch = 64

// BuildSummary holds counts from an index build.
type BuildSummary struct {
	Total   int
	Encoded int
	Cached  int
}

// Build reads the corpus TSV, encodes every passage, and writes the three
// index artifacts (passage records, vector index, passage store) into
// cfg.IndexDir. fingerprint identifies the encoder weights; cached vectors
// are only reused when it matches. Progress streams to w.
func Build(ctx context.Context, enc encoder.Encoder, fingerprint string, cfg types.IndexConfig, w io.Writer) (BuildSummary, error) {
	passages, err := corpus.ReadCorpus(cfg.CorpusFile)
	if err != nil {
		return BuildSummary{}, err
	}
	if len(passages) == 0 {
		return BuildSummary{}, fmt.Errorf("corpus %s contains no passages", cfg.CorpusFile)
	}

	if err := os.MkdirAll(cfg.IndexDir, 0o755); err != nil {
		return BuildSummary{}, fmt.Errorf("creating index directory: %w", err)
	}

	fmt.Fprintf(w, "read %d passages from %s\n", len(passages), cfg.CorpusFile)

	if err := corpus.WriteRecords(filepath.Join(cfg.IndexDir, RecordsFile), passages); err != nil {
		return BuildSummary{}, err
	}

	st, err := store.Open(filepath.Join(cfg.IndexDir, StoreFile))
	if err != nil {
		return BuildSummary{}, err
	}
	defer st.Close()
	if err := st.Put(ctx, passages); err != nil {
		return BuildSummary{}, err
	}

	var cache *encodeCache
	if !cfg.DisableCache {
		cache, err = openCache(filepath.Join(cfg.IndexDir, cacheFile))
		if err != nil {
			// A broken cache is not fatal; rebuild without it.
			fmt.Fprintf(w, "warning: %v, continuing without cache\n", err)
			cache = nil
		} else {
			defer cache.close()
		}
	}

	summary := BuildSummary{Total: len(passages)}
	vectors := make([][]float32, len(passages))

	var missIdx []int
	for i, p := range passages {
		if cache != nil {
			vec, ok := cache.get(cacheKey(fingerprint, p.ID, p.Title, p.Text))
			// The dimension check only applies when the encoder already
			// knows its dimension; remote encoders learn it from the first
			// response and report 0 before that.
			if ok && (enc.Dimension() == 0 || len(vec) == enc.Dimension()) {
				vectors[i] = vec
				summary.Cached++
				continue
			}
		}
		missIdx = append(missIdx, i)
	}

	for start := 0; start < len(missIdx); start += encodeBatch {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		end := start + encodeBatch
		if end > len(missIdx) {
			end = len(missIdx)
		}

		batch := make([]types.Passage, 0, end-start)
		for _, i := range missIdx[start:end] {
			batch = append(batch, passages[i])
		}
		encoded, err := enc.EncodePassages(ctx, batch)
		if err != nil {
			return summary, fmt.Errorf("encoding passages: %w", err)
		}

		for n, i := range missIdx[start:end] {
			vectors[i] = encoded[n]
			if cache != nil {
				p := passages[i]
				if err := cache.put(cacheKey(fingerprint, p.ID, p.Title, p.Text), encoded[n]); err != nil {
					return summary, fmt.Errorf("caching vector for %s: %w", p.ID, err)
				}
			}
		}
		summary.Encoded += end - start
		fmt.Fprintf(w, "encoded %d/%d passages\n", summary.Cached+summary.Encoded, summary.Total)
	}

	ids := make([]string, len(passages))
	for i, p := range passages {
		ids[i] = p.ID
	}
	var flat Flat
	if err := flat.Build(ids, vectors); err != nil {
		return summary, err
	}
	if err := flat.Save(filepath.Join(cfg.IndexDir, VectorsFile)); err != nil {
		return summary, err
	}

	fmt.Fprintf(w, "indexed: %d (encoded %d, cached %d)\n", summary.Total, summary.Encoded, summary.Cached)
	return summary, nil
}
