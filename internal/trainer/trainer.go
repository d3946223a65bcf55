// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package trainer fits the lexical bi-encoder on question/passage pairs with
// in-batch negatives: every positive passage in a batch serves as a negative
// for every other question, and an optional hard negative is scored against
// its own question only.
package trainer

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"path/filepath"
	"sort"

	"github.com/pdiddy/retrieval-engine/internal/encoder"
	"github.com/pdiddy/retrieval-engine/pkg/types"
)

// Defaults applied when the corresponding config field is zero.
const (
	defaultDimension    = 128
	defaultBatchSize    = 16
	defaultEpochs       = 3
	defaultLearningRate = 0.05
	defaultSeed         = 1
)

// FinalCheckpoint is the directory name of the last checkpoint written
// under the output dir, alongside the per-epoch checkpoint-<n> directories.
const FinalCheckpoint = "final"

// Train reads the training file, builds the vocabulary, and runs SGD over
// the configured number of epochs. One checkpoint directory is written per
// epoch plus a final copy. Progress streams to w. The trained encoder is
// returned for in-process use.
func Train(ctx context.Context, cfg types.TrainerConfig, w io.Writer) (*encoder.BiEncoder, error) {
	cfg = withDefaults(cfg)

	examples, err := ReadExamples(cfg.TrainFile, cfg.Format)
	if err != nil {
		return nil, err
	}

	terms := buildVocabulary(examples)
	if len(terms) == 0 {
		return nil, fmt.Errorf("training data contains no indexable terms")
	}

	enc, err := encoder.NewBiEncoder(terms, cfg.Dimension, cfg.Seed)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(w, "training on %d examples, vocabulary %d terms, dimension %d\n",
		len(examples), len(terms), cfg.Dimension)

	order := make([]int, len(examples))
	for i := range order {
		order[i] = i
	}

	var epochLoss float64
	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Reshuffle per epoch, deterministically.
		rng := rand.New(rand.NewSource(cfg.Seed + int64(epoch)))
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		epochLoss = trainEpoch(enc, examples, order, cfg.BatchSize, cfg.LearningRate)

		dir := filepath.Join(cfg.OutputDir, fmt.Sprintf("checkpoint-%d", epoch))
		if err := enc.Save(dir, epoch, epochLoss); err != nil {
			return nil, fmt.Errorf("saving checkpoint for epoch %d: %w", epoch, err)
		}
		fmt.Fprintf(w, "epoch %d/%d: loss %.4f, checkpoint %s\n", epoch, cfg.Epochs, epochLoss, dir)
	}

	finalDir := filepath.Join(cfg.OutputDir, FinalCheckpoint)
	if err := enc.Save(finalDir, cfg.Epochs, epochLoss); err != nil {
		return nil, fmt.Errorf("saving final checkpoint: %w", err)
	}
	fmt.Fprintf(w, "final checkpoint %s\n", finalDir)
	return enc, nil
}

func withDefaults(cfg types.TrainerConfig) types.TrainerConfig {
	if cfg.Dimension <= 0 {
		cfg.Dimension = defaultDimension
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = defaultEpochs
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = defaultLearningRate
	}
	if cfg.Seed == 0 {
		cfg.Seed = defaultSeed
	}
	return cfg
}

// buildVocabulary collects every term seen in the training data, sorted for
// a stable row order.
func buildVocabulary(examples []Example) []string {
	seen := make(map[string]struct{})
	for _, ex := range examples {
		for _, text := range []string{ex.Question, ex.Positive, ex.Negative} {
			for _, tok := range encoder.Tokenize(text) {
				seen[tok] = struct{}{}
			}
		}
	}
	terms := make([]string, 0, len(seen))
	for term := range seen {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// trainEpoch runs one pass over the examples in the given order and returns
// the mean per-example loss. The final partial batch is trained, not dropped.
func trainEpoch(enc *encoder.BiEncoder, examples []Example, order []int, batchSize int, lr float64) float64 {
	var total float64
	for start := 0; start < len(order); start += batchSize {
		end := start + batchSize
		if end > len(order) {
			end = len(order)
		}
		batch := make([]Example, 0, end-start)
		for _, i := range order[start:end] {
			batch = append(batch, examples[i])
		}
		total += trainBatch(enc, batch, lr)
	}
	return total / float64(len(order))
}

// trainBatch computes the in-batch-negatives softmax cross-entropy loss for
// one batch, backpropagates through the dot products, and applies an SGD
// step. It returns the summed loss over the batch.
func trainBatch(enc *encoder.BiEncoder, batch []Example, lr float64) float64 {
	n := len(batch)

	qVecs := make([][]float32, n)
	qCounts := make([]map[int]int, n)
	pVecs := make([][]float32, n)
	pCounts := make([]map[int]int, n)
	negVecs := make([][]float32, n)
	negCounts := make([]map[int]int, n)

	for i, ex := range batch {
		qVecs[i], qCounts[i] = enc.QueryVector(ex.Question)
		pVecs[i], pCounts[i] = enc.PassageVector("", ex.Positive)
		if ex.Negative != "" {
			negVecs[i], negCounts[i] = enc.PassageVector("", ex.Negative)
		}
	}

	// Per row: scores against every positive in the batch, plus the row's
	// own hard negative as one extra candidate.
	dim := enc.Dimension()
	qGrads := make([][]float32, n)
	pGrads := make([][]float32, n)
	negGrads := make([][]float32, n)
	for i := 0; i < n; i++ {
		qGrads[i] = make([]float32, dim)
		pGrads[i] = make([]float32, dim)
	}

	var loss float64
	for i := 0; i < n; i++ {
		ncand := n
		if negVecs[i] != nil {
			ncand++
		}
		scores := make([]float64, ncand)
		for j := 0; j < n; j++ {
			scores[j] = encoder.Dot(qVecs[i], pVecs[j])
		}
		if negVecs[i] != nil {
			scores[n] = encoder.Dot(qVecs[i], negVecs[i])
		}

		probs := softmax(scores)
		loss += -math.Log(math.Max(probs[i], 1e-12))

		// dL/dscore[j] = probs[j] - 1{j == i}
		for j := 0; j < ncand; j++ {
			g := probs[j]
			if j == i {
				g -= 1
			}
			if g == 0 {
				continue
			}
			gf := float32(g)
			if j < n {
				axpy(qGrads[i], pVecs[j], gf)
				axpy(pGrads[j], qVecs[i], gf)
			} else {
				if negGrads[i] == nil {
					negGrads[i] = make([]float32, dim)
				}
				axpy(qGrads[i], negVecs[i], gf)
				axpy(negGrads[i], qVecs[i], gf)
			}
		}
	}

	for i := 0; i < n; i++ {
		enc.AddToQueryRows(qCounts[i], qGrads[i], -lr)
		enc.AddToPassageRows(pCounts[i], pGrads[i], -lr)
		if negGrads[i] != nil {
			enc.AddToPassageRows(negCounts[i], negGrads[i], -lr)
		}
	}
	return loss
}

// axpy adds scale*src to dst in place.
func axpy(dst, src []float32, scale float32) {
	for i, v := range src {
		dst[i] += scale * v
	}
}

func softmax(scores []float64) []float64 {
	maxScore := scores[0]
	for _, s := range scores[1:] {
		if s > maxScore {
			maxScore = s
		}
	}
	var sum float64
	out := make([]float64, len(scores))
	for i, s := range scores {
		out[i] = math.Exp(s - maxScore)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
