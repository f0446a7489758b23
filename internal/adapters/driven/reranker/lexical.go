// Package reranker provides a local second-stage scorer for retrieved
// passages. It runs entirely in process: no model download, no network
// call, deterministic scores.
package reranker

import (
	"math"
	"strings"
	"unicode"

	"github.com/custodia-labs/corpus-cli/internal/core/ports/driven"
)

// Ensure Lexical implements the interface.
var _ driven.Reranker = (*Lexical)(nil)

// bm25 constants, standard values.
const (
	k1 = 1.2
	b  = 0.75
)

// Lexical scores candidates with BM25 over the candidate set itself.
// Document frequencies come from the candidates, so a term every
// passage shares contributes little and a discriminating term a lot.
type Lexical struct{}

// NewLexical creates the lexical re-ranker.
func NewLexical() *Lexical {
	return &Lexical{}
}

// Score returns one BM25 relevance score per candidate, in order.
func (l *Lexical) Score(query string, candidates []string) []float64 {
	scores := make([]float64, len(candidates))
	queryTerms := tokenise(query)
	if len(queryTerms) == 0 || len(candidates) == 0 {
		return scores
	}

	docs := make([]map[string]int, len(candidates))
	lengths := make([]int, len(candidates))
	totalLen := 0
	df := make(map[string]int)

	for i, c := range candidates {
		terms := tokenise(c)
		freq := make(map[string]int, len(terms))
		for _, t := range terms {
			freq[t]++
		}
		docs[i] = freq
		lengths[i] = len(terms)
		totalLen += len(terms)
		for t := range freq {
			df[t]++
		}
	}

	n := float64(len(candidates))
	avgLen := float64(totalLen) / n

	for i := range candidates {
		var score float64
		for _, term := range queryTerms {
			tf := float64(docs[i][term])
			if tf == 0 {
				continue
			}
			idf := math.Log(1 + (n-float64(df[term])+0.5)/(float64(df[term])+0.5))
			norm := tf * (k1 + 1) / (tf + k1*(1-b+b*float64(lengths[i])/avgLen))
			score += idf * norm
		}
		scores[i] = score
	}
	return scores
}

// tokenise lowercases and splits on non-alphanumeric runs.
func tokenise(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
