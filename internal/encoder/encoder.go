// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package encoder implements the lexical bi-encoder: separate query and
// passage embedding tables over a shared vocabulary. A text encodes to the
// sum of its term rows, so similarity between a query and a passage is the
// dot product of their vectors.
package encoder

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/pdiddy/retrieval-engine/pkg/types"
)

// Encoder turns texts into fixed-dimension vectors suitable for dot-product
// ranking. Implementations return L2-normalized vectors.
type Encoder interface {
	// Dimension is the output vector length. Zero means not yet known
	// (remote backends learn it from the first response).
	Dimension() int

	// EncodeQueries encodes question texts.
	EncodeQueries(ctx context.Context, texts []string) ([][]float32, error)

	// EncodePassages encodes passages, folding the title into the text.
	EncodePassages(ctx context.Context, passages []types.Passage) ([][]float32, error)
}

// BiEncoder is the trainable local encoder. Query and passage sides have
// independent embedding tables; rows are indexed by the shared vocabulary.
type BiEncoder struct {
	dim     int
	vocab   map[string]int
	terms   []string
	query   [][]float32
	passage [][]float32
}

// NewBiEncoder builds a bi-encoder over terms with deterministically seeded
// embedding rows. Row initialization depends only on the term, the side, the
// dimension, and seed, so training runs are reproducible.
func NewBiEncoder(terms []string, dim int, seed int64) (*BiEncoder, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("encoder dimension must be positive, got %d", dim)
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("empty vocabulary")
	}

	e := &BiEncoder{
		dim:     dim,
		vocab:   make(map[string]int, len(terms)),
		terms:   append([]string(nil), terms...),
		query:   make([][]float32, len(terms)),
		passage: make([][]float32, len(terms)),
	}
	for i, term := range e.terms {
		if _, dup := e.vocab[term]; dup {
			return nil, fmt.Errorf("duplicate vocabulary term %q", term)
		}
		e.vocab[term] = i
		e.query[i] = initRow(term, "q", dim, seed)
		e.passage[i] = initRow(term, "p", dim, seed)
	}
	return e, nil
}

// initRow seeds a term embedding from the FNV hash of the term and side.
// Values are scaled by 1/sqrt(dim) so initial dot products stay near zero.
func initRow(term, side string, dim int, seed int64) []float32 {
	h := fnv.New64a()
	h.Write([]byte(side))
	h.Write([]byte(term))
	rng := rand.New(rand.NewSource(seed ^ int64(h.Sum64())))

	scale := 1.0 / math.Sqrt(float64(dim))
	row := make([]float32, dim)
	for i := range row {
		row[i] = float32(rng.NormFloat64() * scale)
	}
	return row
}

// Dimension returns the encoder output vector length.
func (e *BiEncoder) Dimension() int { return e.dim }

// VocabSize returns the number of vocabulary terms.
func (e *BiEncoder) VocabSize() int { return len(e.terms) }

// termCounts maps text tokens to vocabulary rows with occurrence counts.
// Out-of-vocabulary terms are dropped.
func (e *BiEncoder) termCounts(text string) map[int]int {
	counts := make(map[int]int)
	for _, tok := range Tokenize(text) {
		if row, ok := e.vocab[tok]; ok {
			counts[row]++
		}
	}
	return counts
}

// QueryVector returns the raw (unnormalized) query-side vector for text.
// The returned counts let the trainer route gradients back to term rows.
func (e *BiEncoder) QueryVector(text string) ([]float32, map[int]int) {
	counts := e.termCounts(text)
	return sumRows(e.query, counts, e.dim), counts
}

// PassageVector returns the raw passage-side vector for a title/text pair.
func (e *BiEncoder) PassageVector(title, text string) ([]float32, map[int]int) {
	counts := e.termCounts(text)
	for row, n := range e.termCounts(title) {
		counts[row] += n
	}
	return sumRows(e.passage, counts, e.dim), counts
}

// AddToQueryRows adds scale*count*grad to each query-side term row in
// counts. The trainer passes a negative scale to descend the loss gradient.
func (e *BiEncoder) AddToQueryRows(counts map[int]int, grad []float32, scale float64) {
	addToRows(e.query, counts, grad, scale)
}

// AddToPassageRows is the passage-side counterpart of AddToQueryRows.
func (e *BiEncoder) AddToPassageRows(counts map[int]int, grad []float32, scale float64) {
	addToRows(e.passage, counts, grad, scale)
}

func addToRows(table [][]float32, counts map[int]int, grad []float32, scale float64) {
	for row, n := range counts {
		w := float32(scale * float64(n))
		dst := table[row]
		for i, g := range grad {
			dst[i] += w * g
		}
	}
}

func sumRows(table [][]float32, counts map[int]int, dim int) []float32 {
	vec := make([]float32, dim)
	for row, n := range counts {
		w := float32(n)
		for i, v := range table[row] {
			vec[i] += w * v
		}
	}
	return vec
}

// EncodeQuery encodes a single question into an L2-normalized vector.
func (e *BiEncoder) EncodeQuery(text string) []float32 {
	vec, _ := e.QueryVector(text)
	Normalize(vec)
	return vec
}

// EncodePassage encodes a single passage into an L2-normalized vector.
func (e *BiEncoder) EncodePassage(title, text string) []float32 {
	vec, _ := e.PassageVector(title, text)
	Normalize(vec)
	return vec
}

// EncodeQueries implements Encoder.
func (e *BiEncoder) EncodeQueries(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.EncodeQuery(text)
	}
	return out, nil
}

// EncodePassages implements Encoder.
func (e *BiEncoder) EncodePassages(ctx context.Context, passages []types.Passage) ([][]float32, error) {
	out := make([][]float32, len(passages))
	for i, p := range passages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.EncodePassage(p.Title, p.Text)
	}
	return out, nil
}

// Dot returns the dot product of two vectors, accumulated in float64.
func Dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var s float64
	for i := 0; i < n; i++ {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

// Normalize scales vec to unit L2 length in place. Zero vectors are left
// unchanged.
func Normalize(vec []float32) {
	norm := math.Sqrt(Dot(vec, vec))
	if norm == 0 {
		return
	}
	inv := float32(1 / norm)
	for i := range vec {
		vec[i] *= inv
	}
}
