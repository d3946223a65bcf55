// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus reads and writes the file formats that connect pipeline
// stages: TSV corpora, TSV query files, and gzip-compressed JSON passage
// records.
package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdiddy/retrieval-engine/pkg/types"
)

// maxLine bounds a single TSV line. Passages are paragraph-sized; 1 MiB
// leaves generous headroom.
const maxLine = 1 << 20

// ReadCorpus reads a corpus TSV file with the header "id\ttext\ttitle".
// Blank lines are skipped; rows with the wrong column count are errors.
func ReadCorpus(path string) ([]types.Passage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus file: %w", err)
	}
	defer f.Close()

	passages, err := parseCorpus(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return passages, nil
}

func parseCorpus(r io.Reader) ([]types.Passage, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading header: %w", err)
		}
		return nil, fmt.Errorf("corpus file is empty")
	}
	header := strings.Split(scanner.Text(), "\t")
	if len(header) != 3 || header[0] != "id" || header[1] != "text" || header[2] != "title" {
		return nil, fmt.Errorf("unexpected corpus header %q: want \"id\\ttext\\ttitle\"", scanner.Text())
	}

	var passages []types.Passage
	line := 1
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		cols := strings.Split(text, "\t")
		if len(cols) != 3 {
			return nil, fmt.Errorf("line %d: %d columns, want 3", line, len(cols))
		}
		if cols[0] == "" {
			return nil, fmt.Errorf("line %d: empty passage id", line)
		}
		passages = append(passages, types.Passage{ID: cols[0], Text: cols[1], Title: cols[2]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}
	return passages, nil
}

// Query is one entry of a query TSV file.
type Query struct {
	ID   string
	Text string
}

// ReadQueries reads a query TSV file with "qid\ttext" rows and no header.
func ReadQueries(path string) ([]Query, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening query file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	var queries []Query
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		cols := strings.SplitN(text, "\t", 3)
		if len(cols) != 2 {
			return nil, fmt.Errorf("%s: line %d: want \"qid\\ttext\"", path, line)
		}
		queries = append(queries, Query{ID: cols[0], Text: cols[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading queries: %w", err)
	}
	return queries, nil
}
