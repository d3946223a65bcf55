// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package searcher answers queries against a built passage index: encode the
// query, rank passages by dot product, and resolve hits to full records.
package searcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/retrieval-engine/internal/corpus"
	"github.com/pdiddy/retrieval-engine/internal/encoder"
	"github.com/pdiddy/retrieval-engine/internal/index"
	"github.com/pdiddy/retrieval-engine/internal/store"
	"github.com/pdiddy/retrieval-engine/pkg/types"
)

const defaultTopK = 10

// Searcher holds an encoder and a loaded index directory.
type Searcher struct {
	enc  encoder.Encoder
	flat *index.Flat

	// store resolves ids to passage records. When the index directory has
	// no passage database the gzip record file is loaded instead.
	store   *store.Store
	records map[string]types.Passage
}

// Open loads the vector index from indexDir and prepares passage lookup.
// The encoder dimension must agree with the index when both are known.
func Open(enc encoder.Encoder, indexDir string) (*Searcher, error) {
	flat, err := index.LoadFlat(filepath.Join(indexDir, index.VectorsFile))
	if err != nil {
		return nil, err
	}
	if d := enc.Dimension(); d > 0 && flat.Dimension() > 0 && d != flat.Dimension() {
		return nil, fmt.Errorf("encoder dimension %d does not match index dimension %d",
			d, flat.Dimension())
	}

	s := &Searcher{enc: enc, flat: flat}

	dbPath := filepath.Join(indexDir, index.StoreFile)
	if _, err := os.Stat(dbPath); err == nil {
		if s.store, err = store.Open(dbPath); err != nil {
			return nil, err
		}
		return s, nil
	}

	// No passage database; fall back to the gzip records.
	passages, err := corpus.ReadRecords(filepath.Join(indexDir, index.RecordsFile))
	if err != nil {
		return nil, fmt.Errorf("index has neither passage store nor records: %w", err)
	}
	s.records = make(map[string]types.Passage, len(passages))
	for _, p := range passages {
		s.records[p.ID] = p
	}
	return s, nil
}

// Close releases the passage store, if open.
func (s *Searcher) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// Len returns the number of indexed passages.
func (s *Searcher) Len() int { return s.flat.Len() }

// Search encodes the queries and returns topK ranked hits per query, in
// query order. A topK of zero or less uses the default (10).
func (s *Searcher) Search(ctx context.Context, queries []string, topK int) ([]types.SearchResult, error) {
	if len(queries) == 0 {
		return nil, fmt.Errorf("no queries given")
	}
	if topK <= 0 {
		topK = defaultTopK
	}

	vecs, err := s.enc.EncodeQueries(ctx, queries)
	if err != nil {
		return nil, fmt.Errorf("encoding queries: %w", err)
	}

	results := make([]types.SearchResult, len(queries))
	for i, vec := range vecs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		hits, err := s.flat.Query(vec, topK)
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", queries[i], err)
		}

		resolved, err := s.resolve(ctx, hits)
		if err != nil {
			return nil, err
		}
		results[i] = types.SearchResult{Query: queries[i], Hits: resolved}
	}
	return results, nil
}

// resolve joins index hits with their passage records. Hits whose id is
// missing from the store keep an empty title and text rather than failing
// the whole query.
func (s *Searcher) resolve(ctx context.Context, hits []index.Hit) ([]types.SearchHit, error) {
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}

	var passages map[string]types.Passage
	if s.store != nil {
		var err error
		if passages, err = s.store.Get(ctx, ids); err != nil {
			return nil, err
		}
	} else {
		passages = s.records
	}

	out := make([]types.SearchHit, len(hits))
	for i, h := range hits {
		sh := types.SearchHit{DocID: h.ID, Score: h.Score}
		if p, ok := passages[h.ID]; ok {
			sh.Title = p.Title
			sh.Text = p.Text
		}
		out[i] = sh
	}
	return out, nil
}
