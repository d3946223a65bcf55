// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Span is one candidate answer extracted from a context passage.
type Span struct {
	// Passage is the index into the question's context list.
	Passage int `json:"passage" yaml:"passage"`

	// Start and End are byte offsets into the passage text such that
	// passage[Start:End] == Text.
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`

	// Text is the extracted answer span.
	Text string `json:"text" yaml:"text"`

	// Confidence is the softmax-normalized span score in (0, 1).
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// Answer holds the ranked candidate spans for one question.
type Answer struct {
	// Question is the raw question text.
	Question string `json:"question" yaml:"question"`

	// Spans are ordered by descending confidence. Empty when no context
	// term matches the question.
	Spans []Span `json:"spans" yaml:"spans"`
}
