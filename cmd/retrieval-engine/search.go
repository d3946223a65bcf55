// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/retrieval-engine/internal/searcher"
	"github.com/pdiddy/retrieval-engine/internal/tui"
	"github.com/pdiddy/retrieval-engine/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Rank indexed passages against queries",
	Long: `Search encodes queries with the given checkpoint and ranks indexed
passages by vector similarity.

Queries come from the command line, from a "qid\ttext" TSV file (--queries,
writing a "qid\tdocid\trank\tscore" ranking TSV to --output), or from an
interactive prompt (--interactive).`,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	indexDir, _ := cmd.Flags().GetString("index-dir")
	topK, _ := cmd.Flags().GetInt("top-k")
	queryFile, _ := cmd.Flags().GetString("queries")
	outFile, _ := cmd.Flags().GetString("output")
	saveRun, _ := cmd.Flags().GetString("save-run")
	interactive, _ := cmd.Flags().GetBool("interactive")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if topK <= 0 {
		topK = viper.GetInt("search.top_k")
	}

	if queryFile != "" {
		if outFile == "" {
			return fmt.Errorf("--queries requires --output for the ranking file")
		}
		// Batch mode only writes the ranking TSV.
		if saveRun != "" || jsonOutput || interactive || len(args) > 0 {
			return fmt.Errorf("--queries cannot be combined with --save-run, --json, --interactive, or query arguments")
		}
	}

	encCfg := encoderConfig(cmd)
	enc, _, err := buildEncoder(encCfg)
	if err != nil {
		return err
	}

	s, err := searcher.Open(enc, indexDir)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()

	// Batch mode: query file in, ranking file out.
	if queryFile != "" {
		n, err := s.SearchFile(ctx, queryFile, outFile, topK, os.Stdout)
		if err != nil {
			return err
		}
		fmt.Printf("ranked %d queries into %s\n", n, outFile)
		return nil
	}

	if interactive {
		_, err := tea.NewProgram(tui.New(s, topK), tea.WithAltScreen()).Run()
		return err
	}

	if len(args) == 0 {
		return fmt.Errorf("no queries given: pass queries as arguments, --queries FILE, or --interactive")
	}

	results, err := s.Search(ctx, args, topK)
	if err != nil {
		return err
	}

	if saveRun != "" {
		runCfg := searcher.RunConfig{
			IndexDir:      indexDir,
			CheckpointDir: encCfg.CheckpointDir,
			TopK:          topK,
		}
		if err := searcher.WriteRunFile(saveRun, runCfg, results); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved run to %s\n", saveRun)
	}

	return formatSearchOutput(results, jsonOutput)
}

func formatSearchOutput(results []types.SearchResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	for _, res := range results {
		fmt.Printf("Query: %s\n", res.Query)
		if len(res.Hits) == 0 {
			fmt.Println("  no results")
			continue
		}
		fmt.Printf("%-4s  %-12s  %-30s  %-8s  %s\n", "Rank", "DocID", "Title", "Score", "Text")
		fmt.Println(strings.Repeat("-", 100))
		for i, hit := range res.Hits {
			fmt.Printf("%-4d  %-12s  %-30s  %-8.4f  %s\n",
				i+1, hit.DocID, truncate(hit.Title, 30), hit.Score, truncate(hit.Text, 40))
		}
		fmt.Println()
	}
	return nil
}

// truncate shortens s to at most max runes, never splitting a rune.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-3]) + "..."
}

func init() {
	searchCmd.Flags().String("checkpoint", "", "bi-encoder checkpoint directory")
	searchCmd.Flags().String("remote-url", "", "embedding service URL (replaces --checkpoint)")
	searchCmd.Flags().String("index-dir", "index", "index directory built by the index stage")
	searchCmd.Flags().Int("top-k", 10, "passages returned per query")
	searchCmd.Flags().String("queries", "", "query TSV file (qid, text) for batch mode")
	searchCmd.Flags().String("output", "", "ranking TSV file written in batch mode")
	searchCmd.Flags().String("save-run", "", "save the queries and results to a YAML run file")
	searchCmd.Flags().Bool("interactive", false, "interactive search prompt")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}
