// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reader extracts answer spans from context passages. Candidate
// spans are token windows anchored on question terms; each is scored by the
// encoder similarity between question and span plus the IDF-weighted lexical
// overlap of question terms inside the window.
package reader

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/pdiddy/retrieval-engine/internal/encoder"
	"github.com/pdiddy/retrieval-engine/pkg/types"
)

const (
	defaultMaxSpanTokens = 10
	defaultTopSpans      = 5

	// simWeight balances encoder similarity against lexical overlap in the
	// raw span score.
	simWeight = 2.0
)

// Reader scores candidate answer spans with an encoder.
type Reader struct {
	enc encoder.Encoder
	cfg types.ReaderConfig
}

// New builds a reader. Zero config fields fall back to defaults.
func New(enc encoder.Encoder, cfg types.ReaderConfig) *Reader {
	if cfg.MaxSpanTokens <= 0 {
		cfg.MaxSpanTokens = defaultMaxSpanTokens
	}
	if cfg.TopSpans <= 0 {
		cfg.TopSpans = defaultTopSpans
	}
	return &Reader{enc: enc, cfg: cfg}
}

// Extract answers each question from its own context list. contexts must be
// parallel to questions. Per question the result holds ranked candidate
// spans with byte offsets into the source passage; a question whose terms
// never appear in its contexts yields an empty span list.
func (r *Reader) Extract(ctx context.Context, questions []string, contexts [][]string) ([]types.Answer, error) {
	if len(questions) != len(contexts) {
		return nil, fmt.Errorf("got %d questions but %d context lists", len(questions), len(contexts))
	}

	answers := make([]types.Answer, len(questions))
	for i, q := range questions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		spans, err := r.extractOne(ctx, q, contexts[i])
		if err != nil {
			return nil, fmt.Errorf("question %q: %w", q, err)
		}
		answers[i] = types.Answer{Question: q, Spans: spans}
	}
	return answers, nil
}

// candidate is a span under scoring, before confidences are normalized.
type candidate struct {
	span  types.Span
	score float64
}

func (r *Reader) extractOne(ctx context.Context, question string, passages []string) ([]types.Span, error) {
	qTerms := make(map[string]struct{})
	for _, t := range encoder.Tokenize(question) {
		qTerms[t] = struct{}{}
	}
	if len(qTerms) == 0 || len(passages) == 0 {
		return nil, nil
	}

	qVecs, err := r.enc.EncodeQueries(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("encoding question: %w", err)
	}
	qVec := qVecs[0]

	idf := contextIDF(qTerms, passages)

	var cands []candidate
	for pi, passage := range passages {
		pc, err := r.passageCandidates(ctx, qVec, qTerms, idf, pi, passage)
		if err != nil {
			return nil, err
		}
		cands = append(cands, pc...)
	}
	if len(cands) == 0 {
		return nil, nil
	}

	// Softmax over the candidate pool turns raw scores into confidences.
	scores := make([]float64, len(cands))
	for i, c := range cands {
		scores[i] = c.score
	}
	maxScore := scores[0]
	for _, s := range scores[1:] {
		if s > maxScore {
			maxScore = s
		}
	}
	var sum float64
	for i := range scores {
		scores[i] = math.Exp(scores[i] - maxScore)
		sum += scores[i]
	}
	for i := range cands {
		cands[i].span.Confidence = scores[i] / sum
	}

	sort.SliceStable(cands, func(a, b int) bool {
		return cands[a].span.Confidence > cands[b].span.Confidence
	})
	if len(cands) > r.cfg.TopSpans {
		cands = cands[:r.cfg.TopSpans]
	}

	spans := make([]types.Span, len(cands))
	for i, c := range cands {
		spans[i] = c.span
	}
	return spans, nil
}

// passageCandidates enumerates token windows anchored on question-term
// occurrences and scores them. Windows growing left and right of each anchor
// are considered, up to MaxSpanTokens tokens, always ending on non-stopword
// tokens.
func (r *Reader) passageCandidates(ctx context.Context, qVec []float32, qTerms map[string]struct{}, idf map[string]float64, passageIdx int, passage string) ([]candidate, error) {
	tokens := encoder.TokenSpans(passage)
	if len(tokens) == 0 {
		return nil, nil
	}

	type window struct{ lo, hi int } // inclusive token range
	seen := make(map[window]struct{})
	var windows []window

	addWindow := func(lo, hi int) {
		// Trim stopword edges so spans read like answers, not fragments.
		for lo <= hi && encoder.IsStopword(tokens[lo].Text) {
			lo++
		}
		for hi >= lo && encoder.IsStopword(tokens[hi].Text) {
			hi--
		}
		if lo > hi {
			return
		}
		w := window{lo, hi}
		if _, dup := seen[w]; dup {
			return
		}
		seen[w] = struct{}{}
		windows = append(windows, w)
	}

	for t, tok := range tokens {
		if _, isQ := qTerms[tok.Text]; !isQ {
			continue
		}
		for size := 1; size <= r.cfg.MaxSpanTokens; size++ {
			if t+size-1 < len(tokens) {
				addWindow(t, t+size-1)
			}
			if t-size+1 >= 0 {
				addWindow(t-size+1, t)
			}
		}
	}
	if len(windows) == 0 {
		return nil, nil
	}

	texts := make([]types.Passage, len(windows))
	for i, w := range windows {
		texts[i] = types.Passage{Text: passage[tokens[w.lo].Start:tokens[w.hi].End]}
	}
	vecs, err := r.enc.EncodePassages(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("encoding candidate spans: %w", err)
	}

	cands := make([]candidate, 0, len(windows))
	for i, w := range windows {
		var overlap float64
		matched := make(map[string]struct{})
		for t := w.lo; t <= w.hi; t++ {
			term := tokens[t].Text
			if _, isQ := qTerms[term]; !isQ {
				continue
			}
			if _, done := matched[term]; done {
				continue
			}
			matched[term] = struct{}{}
			overlap += idf[term]
		}

		start := tokens[w.lo].Start
		end := tokens[w.hi].End
		cands = append(cands, candidate{
			span: types.Span{
				Passage: passageIdx,
				Start:   start,
				End:     end,
				Text:    passage[start:end],
			},
			score: simWeight*encoder.Dot(qVec, vecs[i]) + overlap,
		})
	}
	return cands, nil
}

// contextIDF weights question terms by rarity across the context list:
// a term found in every passage carries less signal than one found in a
// single passage.
func contextIDF(qTerms map[string]struct{}, passages []string) map[string]float64 {
	df := make(map[string]int, len(qTerms))
	for _, passage := range passages {
		seen := make(map[string]struct{})
		for _, t := range encoder.Tokenize(passage) {
			if _, isQ := qTerms[t]; !isQ {
				continue
			}
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}

	n := float64(len(passages))
	idf := make(map[string]float64, len(qTerms))
	for term := range qTerms {
		idf[term] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return idf
}
