// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/retrieval-engine/internal/trainer"
	"github.com/pdiddy/retrieval-engine/pkg/types"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the bi-encoder on question/passage pairs",
	Long: `Train fits the bi-encoder retrieval model on a training data file with
in-batch negatives. One checkpoint directory is written per epoch under the
output directory, plus a final copy usable by the index and search stages.`,
	RunE: runTrain,
}

func runTrain(cmd *cobra.Command, args []string) error {
	trainFile, _ := cmd.Flags().GetString("train-file")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	format, _ := cmd.Flags().GetString("format")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	epochs, _ := cmd.Flags().GetInt("epochs")
	dimension, _ := cmd.Flags().GetInt("dimension")
	lr, _ := cmd.Flags().GetFloat64("learning-rate")
	seed, _ := cmd.Flags().GetInt64("seed")

	if dimension == 0 {
		dimension = viper.GetInt("trainer.dimension")
	}

	cfg := types.TrainerConfig{
		TrainFile:    trainFile,
		OutputDir:    outputDir,
		Format:       format,
		BatchSize:    batchSize,
		Epochs:       epochs,
		Dimension:    dimension,
		LearningRate: lr,
		Seed:         seed,
	}

	_, err := trainer.Train(context.Background(), cfg, os.Stdout)
	return err
}

func init() {
	trainCmd.Flags().String("train-file", "", "training data file (required)")
	trainCmd.Flags().String("output-dir", "checkpoints", "directory receiving per-epoch checkpoints")
	trainCmd.Flags().String("format", trainer.FormatTriplesTSV, "training data format tag")
	trainCmd.Flags().Int("batch-size", 16, "examples per in-batch-negatives step")
	trainCmd.Flags().Int("epochs", 3, "passes over the training file")
	trainCmd.Flags().Int("dimension", 0, "encoder output dimension (default 128)")
	trainCmd.Flags().Float64("learning-rate", 0.05, "SGD step size")
	trainCmd.Flags().Int64("seed", 1, "seed for embedding initialization and shuffling")
	trainCmd.MarkFlagRequired("train-file")

	rootCmd.AddCommand(trainCmd)
}
