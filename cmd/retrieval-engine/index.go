// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/retrieval-engine/internal/index"
	"github.com/pdiddy/retrieval-engine/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Encode a TSV corpus and build the passage index",
	Long: `Index reads a corpus TSV (id, text, title columns), encodes every
passage with the given checkpoint, and writes three artifacts into the index
directory: a gzip-compressed JSON passage record file, a flat vector index,
and a SQLite passage store with full-text search.

Rebuilds reuse cached vectors when the checkpoint is unchanged.`,
	RunE: runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	corpusFile, _ := cmd.Flags().GetString("corpus")
	indexDir, _ := cmd.Flags().GetString("index-dir")
	noCache, _ := cmd.Flags().GetBool("no-cache")

	enc, fingerprint, err := buildEncoder(encoderConfig(cmd))
	if err != nil {
		return err
	}

	cfg := types.IndexConfig{
		CorpusFile:   corpusFile,
		IndexDir:     indexDir,
		DisableCache: noCache,
	}

	_, err = index.Build(context.Background(), enc, fingerprint, cfg, os.Stdout)
	return err
}

func init() {
	indexCmd.Flags().String("checkpoint", "", "bi-encoder checkpoint directory")
	indexCmd.Flags().String("remote-url", "", "embedding service URL (replaces --checkpoint)")
	indexCmd.Flags().String("corpus", "", "corpus TSV file with id, text, title columns (required)")
	indexCmd.Flags().String("index-dir", "index", "output index directory")
	indexCmd.Flags().Bool("no-cache", false, "skip the encode cache")
	indexCmd.MarkFlagRequired("corpus")

	rootCmd.AddCommand(indexCmd)
}
