// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package trainer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/retrieval-engine/internal/encoder"
	"github.com/pdiddy/retrieval-engine/pkg/types"
)

func writeTrainFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "train.tsv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadExamples(t *testing.T) {
	path := writeTrainFile(t,
		"capital of france\tparis is the capital of france\tberlin is the capital of germany\n"+
			"\n"+
			"tallest tower\tthe eiffel tower is very tall\n")

	examples, err := ReadExamples(path, FormatTriplesTSV)
	require.NoError(t, err)
	require.Len(t, examples, 2)

	assert.Equal(t, "capital of france", examples[0].Question)
	assert.Equal(t, "berlin is the capital of germany", examples[0].Negative)
	assert.Empty(t, examples[1].Negative, "two-column rows have no hard negative")
}

func TestReadExamples_DefaultFormat(t *testing.T) {
	path := writeTrainFile(t, "q\tp\n")

	examples, err := ReadExamples(path, "")
	require.NoError(t, err)
	assert.Len(t, examples, 1)
}

func TestReadExamples_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		format  string
		wantErr string
	}{
		{"unknown format", "q\tp\n", "jsonl", "unknown training data format"},
		{"one column", "just a question\n", FormatTriplesTSV, "1 columns, want 2 or 3"},
		{"four columns", "a\tb\tc\td\n", FormatTriplesTSV, "4 columns"},
		{"empty question", "\tp\n", FormatTriplesTSV, "empty question or positive"},
		{"no examples", "\n\n", FormatTriplesTSV, "contains no examples"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadExamples(writeTrainFile(t, tt.content), tt.format)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// Training data with disjoint vocabularies per topic, so the trained model
// must separate them.
const trainData = "capital of france\tparis is the capital of france\n" +
	"tallest tower\tthe eiffel tower is very tall\n" +
	"first prophet\taaron spoke for moses\n" +
	"longest river\tthe nile flows north through egypt\n"

func TestTrain(t *testing.T) {
	cfg := types.TrainerConfig{
		TrainFile: writeTrainFile(t, trainData),
		OutputDir: t.TempDir(),
		BatchSize: 4,
		Epochs:    2,
		Dimension: 32,
		Seed:      7,
	}

	var out bytes.Buffer
	enc, err := Train(context.Background(), cfg, &out)
	require.NoError(t, err)
	require.NotNil(t, enc)
	assert.Equal(t, 32, enc.Dimension())

	for _, name := range []string{"checkpoint-1", "checkpoint-2", FinalCheckpoint} {
		assert.DirExists(t, filepath.Join(cfg.OutputDir, name))
	}
	assert.Contains(t, out.String(), "epoch 2/2")

	meta, err := encoder.ReadMeta(filepath.Join(cfg.OutputDir, FinalCheckpoint))
	require.NoError(t, err)
	assert.Equal(t, 2, meta.Epoch)
	assert.Equal(t, 32, meta.Dimension)
}

func TestTrain_SeparatesTopics(t *testing.T) {
	cfg := types.TrainerConfig{
		TrainFile:    writeTrainFile(t, trainData),
		OutputDir:    t.TempDir(),
		BatchSize:    4,
		Epochs:       20,
		Dimension:    32,
		LearningRate: 0.1,
		Seed:         7,
	}

	enc, err := Train(context.Background(), cfg, &bytes.Buffer{})
	require.NoError(t, err)

	ctx := context.Background()
	qVecs, err := enc.EncodeQueries(ctx, []string{"capital of france"})
	require.NoError(t, err)

	passages := []types.Passage{
		{ID: "pos", Text: "paris is the capital of france"},
		{ID: "neg1", Text: "the eiffel tower is very tall"},
		{ID: "neg2", Text: "aaron spoke for moses"},
		{ID: "neg3", Text: "the nile flows north through egypt"},
	}
	pVecs, err := enc.EncodePassages(ctx, passages)
	require.NoError(t, err)

	posScore := encoder.Dot(qVecs[0], pVecs[0])
	for i := 1; i < len(pVecs); i++ {
		negScore := encoder.Dot(qVecs[0], pVecs[i])
		assert.Greater(t, posScore, negScore,
			"positive passage should outscore %s", passages[i].ID)
	}
}

func TestTrain_Deterministic(t *testing.T) {
	cfg := types.TrainerConfig{
		TrainFile: writeTrainFile(t, trainData),
		OutputDir: t.TempDir(),
		Epochs:    2,
		Dimension: 16,
		Seed:      3,
	}

	first, err := Train(context.Background(), cfg, &bytes.Buffer{})
	require.NoError(t, err)

	cfg.OutputDir = t.TempDir()
	second, err := Train(context.Background(), cfg, &bytes.Buffer{})
	require.NoError(t, err)

	ctx := context.Background()
	a, err := first.EncodeQueries(ctx, []string{"tallest tower"})
	require.NoError(t, err)
	b, err := second.EncodeQueries(ctx, []string{"tallest tower"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestTrain_CheckpointRoundTrip(t *testing.T) {
	cfg := types.TrainerConfig{
		TrainFile: writeTrainFile(t, trainData),
		OutputDir: t.TempDir(),
		Epochs:    1,
		Dimension: 16,
		Seed:      5,
	}

	trained, err := Train(context.Background(), cfg, &bytes.Buffer{})
	require.NoError(t, err)

	loaded, err := encoder.Load(filepath.Join(cfg.OutputDir, FinalCheckpoint))
	require.NoError(t, err)

	ctx := context.Background()
	want, err := trained.EncodeQueries(ctx, []string{"longest river"})
	require.NoError(t, err)
	got, err := loaded.EncodeQueries(ctx, []string{"longest river"})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestTrain_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Train(ctx, types.TrainerConfig{
		TrainFile: writeTrainFile(t, trainData),
		OutputDir: t.TempDir(),
	}, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}
