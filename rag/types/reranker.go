package types

import "sort"

// Reranker reorders combined retrieval results before they are returned
// to the caller.
type Reranker interface {
	Rerank(query string, results []Result) ([]Result, error)
}

// WeightedReranker scores results as a weighted sum of vector similarity
// and full-text score. Weights do not need to add up to 1.
type WeightedReranker struct {
	VectorWeight   float64
	FullTextWeight float64
}

// NewWeightedReranker creates a WeightedReranker with the given weights.
func NewWeightedReranker(vectorWeight, fullTextWeight float64) *WeightedReranker {
	return &WeightedReranker{
		VectorWeight:   vectorWeight,
		FullTextWeight: fullTextWeight,
	}
}

// Rerank recomputes CombinedScore for every result and sorts by it,
// highest first.
func (r *WeightedReranker) Rerank(query string, results []Result) ([]Result, error) {
	reranked := make([]Result, len(results))
	copy(reranked, results)

	for i := range reranked {
		score := float64(reranked[i].Similarity)*r.VectorWeight +
			float64(reranked[i].FullTextScore)*r.FullTextWeight
		reranked[i].CombinedScore = float32(score)
	}

	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].CombinedScore > reranked[j].CombinedScore
	})

	return reranked, nil
}
