// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package trainer

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// FormatTriplesTSV is the tab-separated triples layout:
// question \t positive_passage [\t hard_negative].
const FormatTriplesTSV = "triples-tsv"

// Example is one training instance. Negative is empty when the data has no
// hard negative for the question.
type Example struct {
	Question string
	Positive string
	Negative string
}

// ReadExamples parses a training data file in the named format.
func ReadExamples(path, format string) ([]Example, error) {
	switch format {
	case FormatTriplesTSV, "":
		return readTriplesTSV(path)
	default:
		return nil, fmt.Errorf("unknown training data format %q", format)
	}
}

func readTriplesTSV(path string) ([]Example, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening training file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var examples []Example
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		cols := strings.Split(text, "\t")
		if len(cols) < 2 || len(cols) > 3 {
			return nil, fmt.Errorf("%s: line %d: %d columns, want 2 or 3", path, line, len(cols))
		}
		ex := Example{Question: cols[0], Positive: cols[1]}
		if len(cols) == 3 {
			ex.Negative = cols[2]
		}
		if ex.Question == "" || ex.Positive == "" {
			return nil, fmt.Errorf("%s: line %d: empty question or positive passage", path, line)
		}
		examples = append(examples, ex)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading training file: %w", err)
	}
	if len(examples) == 0 {
		return nil, fmt.Errorf("training file %s contains no examples", path)
	}
	return examples, nil
}
