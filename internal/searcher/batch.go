// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package searcher

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pdiddy/retrieval-engine/internal/corpus"
)

// SearchFile runs every query from a "qid\ttext" TSV file and writes a
// ranking TSV to outPath: one "qid\tdocid\trank\tscore" line per hit, rank
// starting at 1, in query file order. It returns the number of queries run
// and streams progress to w.
func (s *Searcher) SearchFile(ctx context.Context, queryPath, outPath string, topK int, w io.Writer) (int, error) {
	queries, err := corpus.ReadQueries(queryPath)
	if err != nil {
		return 0, err
	}
	if len(queries) == 0 {
		return 0, fmt.Errorf("query file %s contains no queries", queryPath)
	}

	texts := make([]string, len(queries))
	for i, q := range queries {
		texts[i] = q.Text
	}

	results, err := s.Search(ctx, texts, topK)
	if err != nil {
		return 0, err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("creating ranking file: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	for i, res := range results {
		qid := queries[i].ID
		for rank, hit := range res.Hits {
			fmt.Fprintf(bw, "%s\t%s\t%d\t%g\n", qid, hit.DocID, rank+1, hit.Score)
		}
		fmt.Fprintf(w, "ranked %s (%d hits)\n", qid, len(res.Hits))
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("writing ranking file: %w", err)
	}
	return len(queries), nil
}
