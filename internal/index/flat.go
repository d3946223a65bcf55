// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index builds and searches the flat passage vector index.
package index

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
)

// Flat is a brute-force vector index scored by dot product. Passage vectors
// are L2-normalized at encode time, so dot product equals cosine similarity.
type Flat struct {
	ids  []string
	vecs [][]float32
	dim  int
}

// Build loads ids and vectors into the index.
func (f *Flat) Build(ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("index: ids and vectors length mismatch: %d != %d", len(ids), len(vectors))
	}
	if len(ids) == 0 {
		f.ids, f.vecs, f.dim = nil, nil, 0
		return nil
	}
	dim := len(vectors[0])
	for i := range vectors {
		if len(vectors[i]) != dim {
			return fmt.Errorf("index: inconsistent vector dims %d vs %d", len(vectors[i]), dim)
		}
	}
	f.ids = append([]string(nil), ids...)
	f.vecs = append([][]float32(nil), vectors...)
	f.dim = dim
	return nil
}

// Len returns the number of indexed vectors.
func (f *Flat) Len() int { return len(f.ids) }

// Dimension returns the vector dimensionality, or zero for an empty index.
func (f *Flat) Dimension() int { return f.dim }

// Hit is one scored index entry.
type Hit struct {
	ID    string
	Score float64
}

// Query returns the top-k entries by dot product with the query vector.
func (f *Flat) Query(query []float32, k int) ([]Hit, error) {
	if f.dim == 0 || len(f.vecs) == 0 {
		return nil, nil
	}
	if len(query) != f.dim {
		return nil, fmt.Errorf("index: query dim %d != index dim %d", len(query), f.dim)
	}

	scored := make([]Hit, 0, len(f.vecs))
	for i := range f.vecs {
		s := dot(query, f.vecs[i])
		if math.IsNaN(s) {
			continue
		}
		scored = append(scored, Hit{ID: f.ids[i], Score: s})
	}
	sort.SliceStable(scored, func(a, b int) bool { return scored[a].Score > scored[b].Score })
	if k <= 0 || k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

// MarshalBinary stores: dim(uint32), n(uint32), then for each entry:
// idLen(uint32), id bytes, vec(float32[dim]). All little-endian.
func (f *Flat) MarshalBinary() ([]byte, error) {
	size := 8
	for _, id := range f.ids {
		size += 4 + len(id) + 4*f.dim
	}
	out := make([]byte, 8, size)
	binary.LittleEndian.PutUint32(out[0:4], uint32(f.dim))
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(f.ids)))

	var scratch [4]byte
	for idx, id := range f.ids {
		binary.LittleEndian.PutUint32(scratch[:], uint32(len(id)))
		out = append(out, scratch[:]...)
		out = append(out, id...)
		for _, v := range f.vecs[idx] {
			binary.LittleEndian.PutUint32(scratch[:], math.Float32bits(v))
			out = append(out, scratch[:]...)
		}
	}
	return out, nil
}

// UnmarshalBinary restores the index from bytes produced by MarshalBinary.
func (f *Flat) UnmarshalBinary(data []byte) error {
	if len(data) < 8 {
		return errors.New("index: invalid data")
	}
	off := 0
	getU32 := func() uint32 { v := binary.LittleEndian.Uint32(data[off : off+4]); off += 4; return v }

	dim := int(getU32())
	n := int(getU32())

	// Bound the header counts by what the remaining bytes could hold before
	// allocating, so a corrupt header cannot demand gigabytes.
	rest := len(data) - 8
	if n > 0 && (4+4*dim) > rest/n {
		return errors.New("index: truncated")
	}

	ids := make([]string, n)
	vecs := make([][]float32, n)
	for idx := 0; idx < n; idx++ {
		if off+4 > len(data) {
			return errors.New("index: truncated")
		}
		idLen := int(getU32())
		if off+idLen > len(data) {
			return errors.New("index: truncated id")
		}
		ids[idx] = string(data[off : off+idLen])
		off += idLen

		if off+4*dim > len(data) {
			return errors.New("index: truncated vector")
		}
		vec := make([]float32, dim)
		for j := 0; j < dim; j++ {
			vec[j] = math.Float32frombits(getU32())
		}
		vecs[idx] = vec
	}
	return f.Build(ids, vecs)
}

// Save writes the index to path.
func (f *Flat) Save(path string) error {
	data, err := f.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshaling index: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing index file: %w", err)
	}
	return nil
}

// LoadFlat reads an index file written by Save.
func LoadFlat(path string) (*Flat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading index file: %w", err)
	}
	var f Flat
	if err := f.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &f, nil
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}
