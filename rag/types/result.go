package types

// Result represents a single chunk returned from a retrieval query.
type Result struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Content  string            `json:"content"`

	// The cosine similarity between the query and the chunk.
	// The higher the value, the more similar the chunk is to the query.
	// The value is in the range [-1, 1].
	Similarity float32 `json:"similarity"`

	// FullTextScore is the normalized BM25 score from full-text search.
	FullTextScore float32 `json:"full_text_score,omitempty"`

	// CombinedScore is the final score after reranking.
	CombinedScore float32 `json:"combined_score,omitempty"`
}
