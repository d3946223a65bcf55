// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package encoder

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"
)

const (
	metaFile       = "meta.yaml"
	vocabFile      = "vocab.txt"
	queryVecFile   = "query.vec"
	passageVecFile = "passage.vec"
)

// Meta describes a checkpoint directory.
type Meta struct {
	Dimension int       `yaml:"dimension"`
	VocabSize int       `yaml:"vocab_size"`
	Epoch     int       `yaml:"epoch"`
	Loss      float64   `yaml:"loss"`
	Created   time.Time `yaml:"created"`
}

// Save writes the encoder to dir as meta.yaml, vocab.txt, and the two
// embedding blobs. The directory is created if needed; existing checkpoint
// files are overwritten.
func (e *BiEncoder) Save(dir string, epoch int, loss float64) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating checkpoint directory: %w", err)
	}

	meta := Meta{
		Dimension: e.dim,
		VocabSize: len(e.terms),
		Epoch:     epoch,
		Loss:      loss,
		Created:   time.Now().UTC(),
	}
	data, err := yaml.Marshal(&meta)
	if err != nil {
		return fmt.Errorf("marshaling checkpoint metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, metaFile), data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", metaFile, err)
	}

	vocab := strings.Join(e.terms, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(dir, vocabFile), []byte(vocab), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", vocabFile, err)
	}

	if err := writeTable(filepath.Join(dir, queryVecFile), e.query, e.dim); err != nil {
		return err
	}
	return writeTable(filepath.Join(dir, passageVecFile), e.passage, e.dim)
}

// Load reads a checkpoint directory written by Save.
func Load(dir string) (*BiEncoder, error) {
	data, err := os.ReadFile(filepath.Join(dir, metaFile))
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint metadata: %w", err)
	}
	var meta Meta
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parsing checkpoint metadata: %w", err)
	}
	if meta.Dimension <= 0 || meta.VocabSize <= 0 {
		return nil, fmt.Errorf("invalid checkpoint metadata: dimension %d, vocab size %d",
			meta.Dimension, meta.VocabSize)
	}

	terms, err := readVocab(filepath.Join(dir, vocabFile), meta.VocabSize)
	if err != nil {
		return nil, err
	}

	e := &BiEncoder{
		dim:   meta.Dimension,
		vocab: make(map[string]int, len(terms)),
		terms: terms,
	}
	for i, term := range terms {
		e.vocab[term] = i
	}

	if e.query, err = readTable(filepath.Join(dir, queryVecFile), meta.VocabSize, meta.Dimension); err != nil {
		return nil, err
	}
	if e.passage, err = readTable(filepath.Join(dir, passageVecFile), meta.VocabSize, meta.Dimension); err != nil {
		return nil, err
	}
	return e, nil
}

// ReadMeta reads only the metadata of a checkpoint directory.
func ReadMeta(dir string) (Meta, error) {
	data, err := os.ReadFile(filepath.Join(dir, metaFile))
	if err != nil {
		return Meta{}, fmt.Errorf("reading checkpoint metadata: %w", err)
	}
	var meta Meta
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return Meta{}, fmt.Errorf("parsing checkpoint metadata: %w", err)
	}
	return meta, nil
}

func readVocab(path string, want int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading vocabulary: %w", err)
	}
	defer f.Close()

	terms := make([]string, 0, want)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		terms = append(terms, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading vocabulary: %w", err)
	}
	if len(terms) != want {
		return nil, fmt.Errorf("vocabulary has %d terms, metadata says %d", len(terms), want)
	}
	return terms, nil
}

// writeTable stores a vocab × dim table as a little-endian float32 blob.
func writeTable(path string, table [][]float32, dim int) error {
	buf := make([]byte, len(table)*dim*4)
	off := 0
	for _, row := range table {
		for _, v := range row {
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
			off += 4
		}
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readTable(path string, rows, dim int) ([][]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	if len(data) != rows*dim*4 {
		return nil, fmt.Errorf("%s is %d bytes, expected %d (vocab %d × dim %d)",
			filepath.Base(path), len(data), rows*dim*4, rows, dim)
	}
	table := make([][]float32, rows)
	off := 0
	for r := range table {
		row := make([]float32, dim)
		for i := range row {
			row[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
			off += 4
		}
		table[r] = row
	}
	return table, nil
}
