// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reader

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/retrieval-engine/pkg/types"
)

// zeroEncoder returns all-zero vectors, which removes the similarity term
// from span scores. Rankings then depend only on lexical overlap and are
// exact.
type zeroEncoder struct{}

func (zeroEncoder) Dimension() int { return 4 }

func (zeroEncoder) EncodeQueries(_ context.Context, queries []string) ([][]float32, error) {
	out := make([][]float32, len(queries))
	for i := range out {
		out[i] = make([]float32, 4)
	}
	return out, nil
}

func (zeroEncoder) EncodePassages(_ context.Context, passages []types.Passage) ([][]float32, error) {
	out := make([][]float32, len(passages))
	for i := range out {
		out[i] = make([]float32, 4)
	}
	return out, nil
}

func TestExtract(t *testing.T) {
	r := New(zeroEncoder{}, types.ReaderConfig{})

	questions := []string{"capital of france"}
	contexts := [][]string{{
		"Paris is the capital of France.",
		"Berlin is a big city.",
	}}

	answers, err := r.Extract(context.Background(), questions, contexts)
	require.NoError(t, err)
	require.Len(t, answers, 1)

	ans := answers[0]
	assert.Equal(t, "capital of france", ans.Question)
	require.NotEmpty(t, ans.Spans)

	// The span covering both question terms wins.
	top := ans.Spans[0]
	assert.Equal(t, "capital of France", top.Text)
	assert.Equal(t, 0, top.Passage)

	for _, sp := range ans.Spans {
		assert.Equal(t, 0, sp.Passage, "second passage shares no question terms")
	}
}

func TestExtract_OffsetsRoundTrip(t *testing.T) {
	r := New(zeroEncoder{}, types.ReaderConfig{})

	contexts := [][]string{{
		"Paris is the capital of France.",
		"The Eiffel Tower stands in Paris, France.",
	}}
	answers, err := r.Extract(context.Background(), []string{"where is the eiffel tower"}, contexts)
	require.NoError(t, err)
	require.NotEmpty(t, answers[0].Spans)

	for _, sp := range answers[0].Spans {
		passage := contexts[0][sp.Passage]
		require.LessOrEqual(t, sp.End, len(passage))
		assert.Equal(t, passage[sp.Start:sp.End], sp.Text)
	}
}

func TestExtract_ConfidencesRankedAndNormalized(t *testing.T) {
	r := New(zeroEncoder{}, types.ReaderConfig{TopSpans: 100})

	answers, err := r.Extract(context.Background(),
		[]string{"capital of france"},
		[][]string{{"Paris is the capital of France."}})
	require.NoError(t, err)

	spans := answers[0].Spans
	require.NotEmpty(t, spans)

	var sum float64
	for i, sp := range spans {
		assert.Greater(t, sp.Confidence, 0.0)
		if i > 0 {
			assert.GreaterOrEqual(t, spans[i-1].Confidence, sp.Confidence)
		}
		sum += sp.Confidence
	}
	// TopSpans exceeds the candidate pool, so the whole softmax is returned.
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestExtract_TopSpansCap(t *testing.T) {
	r := New(zeroEncoder{}, types.ReaderConfig{TopSpans: 2})

	answers, err := r.Extract(context.Background(),
		[]string{"capital of france"},
		[][]string{{"Paris is the capital of France."}})
	require.NoError(t, err)
	assert.Len(t, answers[0].Spans, 2)
}

func TestExtract_MaxSpanTokens(t *testing.T) {
	r := New(zeroEncoder{}, types.ReaderConfig{MaxSpanTokens: 1})

	answers, err := r.Extract(context.Background(),
		[]string{"capital of france"},
		[][]string{{"Paris is the capital of France."}})
	require.NoError(t, err)
	require.NotEmpty(t, answers[0].Spans)

	for _, sp := range answers[0].Spans {
		assert.Contains(t, []string{"capital", "France"}, sp.Text)
	}
}

func TestExtract_NoQuestionTermsInContexts(t *testing.T) {
	r := New(zeroEncoder{}, types.ReaderConfig{})

	answers, err := r.Extract(context.Background(),
		[]string{"capital of france"},
		[][]string{{"Aaron was a prophet."}})
	require.NoError(t, err)
	assert.Empty(t, answers[0].Spans)
}

func TestExtract_StopwordOnlyQuestion(t *testing.T) {
	r := New(zeroEncoder{}, types.ReaderConfig{})

	answers, err := r.Extract(context.Background(),
		[]string{"is it the"},
		[][]string{{"Paris is the capital of France."}})
	require.NoError(t, err)
	assert.Empty(t, answers[0].Spans)
}

func TestExtract_NoContexts(t *testing.T) {
	r := New(zeroEncoder{}, types.ReaderConfig{})

	answers, err := r.Extract(context.Background(), []string{"capital of france"}, [][]string{nil})
	require.NoError(t, err)
	assert.Empty(t, answers[0].Spans)
}

func TestExtract_LengthMismatch(t *testing.T) {
	r := New(zeroEncoder{}, types.ReaderConfig{})

	_, err := r.Extract(context.Background(), []string{"a", "b"}, [][]string{{"c"}})
	assert.ErrorContains(t, err, "2 questions but 1 context lists")
}

func TestExtract_Cancelled(t *testing.T) {
	r := New(zeroEncoder{}, types.ReaderConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Extract(ctx, []string{"capital of france"},
		[][]string{{"Paris is the capital of France."}})
	assert.ErrorIs(t, err, context.Canceled)
}
