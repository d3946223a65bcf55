// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/retrieval-engine/internal/corpus"
	"github.com/pdiddy/retrieval-engine/internal/index"
	"github.com/pdiddy/retrieval-engine/internal/store"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Manage the passage store (ingest, stats, grep)",
	Long: `Corpus manages the SQLite passage store inside an index directory
without re-encoding vectors. Use ingest to load or refresh passages from a
TSV file, stats for record counts, and grep for full-text lookup.`,
}

var corpusIngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load a corpus TSV into the passage store",
	RunE:  runCorpusIngest,
}

func runCorpusIngest(cmd *cobra.Command, args []string) error {
	corpusFile, _ := cmd.Flags().GetString("corpus")
	indexDir, _ := cmd.Flags().GetString("index-dir")

	passages, err := corpus.ReadCorpus(corpusFile)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(indexDir, 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	st, err := store.Open(filepath.Join(indexDir, index.StoreFile))
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Put(context.Background(), passages); err != nil {
		return err
	}
	fmt.Printf("ingested %d passages into %s\n", len(passages), indexDir)
	return nil
}

var corpusStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print passage store statistics",
	RunE:  runCorpusStats,
}

func runCorpusStats(cmd *cobra.Command, args []string) error {
	indexDir, _ := cmd.Flags().GetString("index-dir")

	st, err := store.Open(filepath.Join(indexDir, index.StoreFile))
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := st.Count(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("passages: %d\n", n)
	return nil
}

var corpusGrepCmd = &cobra.Command{
	Use:   "grep [query]",
	Short: "Full-text search over stored passages",
	Args:  cobra.ExactArgs(1),
	RunE:  runCorpusGrep,
}

func runCorpusGrep(cmd *cobra.Command, args []string) error {
	indexDir, _ := cmd.Flags().GetString("index-dir")
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	st, err := store.Open(filepath.Join(indexDir, index.StoreFile))
	if err != nil {
		return err
	}
	defer st.Close()

	passages, err := st.SearchText(context.Background(), args[0], limit)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(passages)
	}
	if len(passages) == 0 {
		fmt.Println("No matches.")
		return nil
	}
	for _, p := range passages {
		fmt.Printf("%s\t%s\t%s\n", p.ID, p.Title, p.Text)
	}
	return nil
}

func init() {
	corpusIngestCmd.Flags().String("corpus", "", "corpus TSV file (required)")
	corpusIngestCmd.MarkFlagRequired("corpus")

	corpusGrepCmd.Flags().Int("limit", 10, "maximum matches")
	corpusGrepCmd.Flags().Bool("json", false, "output matches as JSON")

	for _, c := range []*cobra.Command{corpusIngestCmd, corpusStatsCmd, corpusGrepCmd} {
		c.Flags().String("index-dir", "index", "index directory holding the passage store")
	}

	corpusCmd.AddCommand(corpusIngestCmd, corpusStatsCmd, corpusGrepCmd)
	rootCmd.AddCommand(corpusCmd)
}
