package driven

// Reranker scores (query, passage) candidate pairs with a secondary
// relevance model. It is purely local: no external call, no error path.
// Scores supersede raw vector similarity for final ordering.
type Reranker interface {
	// Score returns one relevance score per candidate, in order.
	Score(query string, candidates []string) []float64
}
