// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the data types shared across pipeline stages.
package types

// Passage is one retrievable unit of corpus text.
type Passage struct {
	// ID is the corpus-assigned passage identifier.
	ID string `json:"id" yaml:"id"`

	// Title is the source document title. May be empty.
	Title string `json:"title" yaml:"title"`

	// Text is the passage body.
	Text string `json:"text" yaml:"text"`
}

// SearchHit is one ranked passage returned for a query.
type SearchHit struct {
	// DocID identifies the matched passage.
	DocID string `json:"doc_id" yaml:"doc_id"`

	// Title and Text are resolved from the passage store when available.
	Title string `json:"title" yaml:"title"`
	Text  string `json:"text" yaml:"text"`

	// Score is the similarity between query and passage vectors.
	Score float64 `json:"score" yaml:"score"`
}

// SearchResult holds the ranked hits for a single query.
type SearchResult struct {
	// QueryID is the caller-assigned identifier; empty in query-list mode.
	QueryID string `json:"query_id,omitempty" yaml:"query_id,omitempty"`

	// Query is the raw query text.
	Query string `json:"query" yaml:"query"`

	// Hits are ordered by descending score.
	Hits []SearchHit `json:"hits" yaml:"hits"`
}
