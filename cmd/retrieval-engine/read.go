// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/retrieval-engine/internal/reader"
	"github.com/pdiddy/retrieval-engine/pkg/types"
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Extract answer spans from context passages",
	Long: `Read answers questions extractively: each candidate answer is a span of
a supplied context passage, returned with byte offsets and a confidence.

Single-question mode takes --question and --context-file (one passage per
line). Batch mode takes --questions-file, a YAML list of entries with a
question and its context passages.`,
	RunE: runRead,
}

// questionEntry is one record of a --questions-file.
type questionEntry struct {
	Question string   `yaml:"question"`
	Contexts []string `yaml:"contexts"`
}

func runRead(cmd *cobra.Command, args []string) error {
	question, _ := cmd.Flags().GetString("question")
	contextFile, _ := cmd.Flags().GetString("context-file")
	questionsFile, _ := cmd.Flags().GetString("questions-file")
	topSpans, _ := cmd.Flags().GetInt("top-spans")
	maxSpanTokens, _ := cmd.Flags().GetInt("max-span-tokens")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	var questions []string
	var contexts [][]string

	switch {
	case questionsFile != "":
		entries, err := readQuestionsFile(questionsFile)
		if err != nil {
			return err
		}
		for _, e := range entries {
			questions = append(questions, e.Question)
			contexts = append(contexts, e.Contexts)
		}
	case question != "":
		if contextFile == "" {
			return fmt.Errorf("--question requires --context-file")
		}
		passages, err := readContextFile(contextFile)
		if err != nil {
			return err
		}
		questions = []string{question}
		contexts = [][]string{passages}
	default:
		return fmt.Errorf("provide --question with --context-file, or --questions-file")
	}

	enc, _, err := buildEncoder(encoderConfig(cmd))
	if err != nil {
		return err
	}

	r := reader.New(enc, types.ReaderConfig{
		MaxSpanTokens: maxSpanTokens,
		TopSpans:      topSpans,
	})

	answers, err := r.Extract(context.Background(), questions, contexts)
	if err != nil {
		return err
	}
	return formatReadOutput(answers, jsonOutput)
}

func readQuestionsFile(path string) ([]questionEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading questions file: %w", err)
	}
	var entries []questionEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing questions file: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("questions file %s is empty", path)
	}
	return entries, nil
}

func readContextFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening context file: %w", err)
	}
	defer f.Close()

	var passages []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			passages = append(passages, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading context file: %w", err)
	}
	if len(passages) == 0 {
		return nil, fmt.Errorf("context file %s contains no passages", path)
	}
	return passages, nil
}

func formatReadOutput(answers []types.Answer, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(answers)
	}

	for _, ans := range answers {
		fmt.Printf("Question: %s\n", ans.Question)
		if len(ans.Spans) == 0 {
			fmt.Println("  no answer found")
			continue
		}
		for i, span := range ans.Spans {
			fmt.Printf("  %d. %q (passage %d, bytes %d-%d, confidence %.3f)\n",
				i+1, span.Text, span.Passage, span.Start, span.End, span.Confidence)
		}
		fmt.Println()
	}
	return nil
}

func init() {
	readCmd.Flags().String("checkpoint", "", "bi-encoder checkpoint directory")
	readCmd.Flags().String("remote-url", "", "embedding service URL (replaces --checkpoint)")
	readCmd.Flags().String("question", "", "question to answer")
	readCmd.Flags().String("context-file", "", "context passages, one per line")
	readCmd.Flags().String("questions-file", "", "YAML file of questions with context lists")
	readCmd.Flags().Int("top-spans", 5, "candidate spans returned per question")
	readCmd.Flags().Int("max-span-tokens", 10, "maximum answer span length in tokens")
	readCmd.Flags().Bool("json", false, "output answers as JSON")

	rootCmd.AddCommand(readCmd)
}
