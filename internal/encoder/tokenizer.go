// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package encoder

import (
	"regexp"
	"strings"
)

// tokenPattern matches runs of letters, allowing internal apostrophes
// ("doesn't", "l'eau").
var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// Token is a tokenizer output with byte offsets into the source text.
type Token struct {
	Text  string
	Start int
	End   int
}

// Tokenize lowercases text and returns its terms with stopwords removed.
func Tokenize(text string) []string {
	lower := strings.ToLower(text)
	raw := tokenPattern.FindAllString(lower, -1)
	if len(raw) == 0 {
		return nil
	}
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

// TokenSpans returns every token of text with byte offsets, stopwords
// included. Token text is lowercased; offsets refer to the original text.
func TokenSpans(text string) []Token {
	idxs := tokenPattern.FindAllStringIndex(text, -1)
	if len(idxs) == 0 {
		return nil
	}
	tokens := make([]Token, 0, len(idxs))
	for _, span := range idxs {
		tokens = append(tokens, Token{
			Text:  strings.ToLower(text[span[0]:span[1]]),
			Start: span[0],
			End:   span[1],
		})
	}
	return tokens
}

// IsStopword reports whether the (lowercased) term is on the stopword list.
func IsStopword(term string) bool {
	_, ok := stopwords[term]
	return ok
}

var stopwords = func() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else",
		"for", "to", "of", "in", "on", "at", "by", "with", "as", "is",
		"are", "was", "were", "be", "been", "being", "it", "this",
		"that", "these", "those", "from", "up", "down", "over", "under",
		"again", "further", "than", "so", "such", "into", "about",
		"between", "through", "during", "before", "after", "above",
		"below", "out", "off", "own", "same", "too", "very", "can",
		"will", "just", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()
