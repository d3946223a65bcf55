// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pdiddy/retrieval-engine/pkg/types"
)

// WriteRecords writes passages to path as gzip-compressed JSON lines, one
// record per passage in input order.
func WriteRecords(path string, passages []types.Passage) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating record file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing record file: %w", cerr)
		}
	}()

	zw := gzip.NewWriter(f)
	enc := json.NewEncoder(zw)
	for _, p := range passages {
		if encErr := enc.Encode(p); encErr != nil {
			return fmt.Errorf("encoding passage %s: %w", p.ID, encErr)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finishing gzip stream: %w", err)
	}
	return nil
}

// ReadRecords reads a gzip-compressed JSON-lines passage file written by
// WriteRecords.
func ReadRecords(path string) ([]types.Passage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening record file: %w", err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("reading gzip stream: %w", err)
	}
	defer zr.Close()

	var passages []types.Passage
	dec := json.NewDecoder(zr)
	for dec.More() {
		var p types.Passage
		if err := dec.Decode(&p); err != nil {
			return nil, fmt.Errorf("decoding passage record: %w", err)
		}
		passages = append(passages, p)
	}
	return passages, nil
}
