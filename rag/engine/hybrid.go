package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/docintel/docintel/rag/interfaces"
	"github.com/docintel/docintel/rag/types"
)

// HybridSearchEngine combines semantic and full-text search over the
// same set of chunks.
type HybridSearchEngine struct {
	semanticEngine interfaces.Engine
	reranker       types.Reranker
	fullTextIndex  *FullTextIndex
}

// NewHybridSearchEngine wraps a semantic engine with a bleve full-text
// index and a reranker.
func NewHybridSearchEngine(semanticEngine interfaces.Engine, reranker types.Reranker, fullTextIndex *FullTextIndex) *HybridSearchEngine {
	return &HybridSearchEngine{
		semanticEngine: semanticEngine,
		reranker:       reranker,
		fullTextIndex:  fullTextIndex,
	}
}

// fullTextID derives a stable bleve document ID from the chunk and its
// origin. Content alone is not enough: identical chunks from different
// files must not overwrite each other.
func fullTextID(content string, metadata map[string]string) string {
	h := sha256.New()
	h.Write([]byte(metadata["source"]))
	h.Write([]byte{0})
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// Store writes a chunk to both indexes.
func (h *HybridSearchEngine) Store(s string, metadata map[string]string) error {
	if err := h.semanticEngine.Store(s, metadata); err != nil {
		return err
	}

	return h.fullTextIndex.Store(fullTextID(s, metadata), s, metadata)
}

// StoreDocuments writes a batch of chunks to both indexes.
func (h *HybridSearchEngine) StoreDocuments(s []string, metadata map[string]string) error {
	if err := h.semanticEngine.StoreDocuments(s, metadata); err != nil {
		return err
	}

	for _, content := range s {
		if err := h.fullTextIndex.Store(fullTextID(content, metadata), content, metadata); err != nil {
			return err
		}
	}

	return nil
}

// Reset resets both indexes.
func (h *HybridSearchEngine) Reset() error {
	if err := h.semanticEngine.Reset(); err != nil {
		return err
	}
	return h.fullTextIndex.Reset()
}

// Count returns the number of chunks in the semantic index.
func (h *HybridSearchEngine) Count() int {
	return h.semanticEngine.Count()
}

// Search runs both searches and returns the reranked union of their
// results, at most similarEntries of them.
func (h *HybridSearchEngine) Search(query string, similarEntries int) ([]types.Result, error) {
	semanticResults, err := h.semanticEngine.Search(query, similarEntries)
	if err != nil {
		return nil, fmt.Errorf("semantic search failed: %w", err)
	}

	fullTextResults, err := h.fullTextIndex.Search(query, similarEntries)
	if err != nil {
		return nil, fmt.Errorf("full-text search failed: %w", err)
	}

	combined := h.combineResults(semanticResults, fullTextResults)

	reranked, err := h.reranker.Rerank(query, combined)
	if err != nil {
		return nil, fmt.Errorf("reranking failed: %w", err)
	}

	if len(reranked) > similarEntries {
		reranked = reranked[:similarEntries]
	}

	return reranked, nil
}

// combineResults merges the two result sets, deduplicating by content.
func (h *HybridSearchEngine) combineResults(semanticResults, fullTextResults []types.Result) []types.Result {
	resultMap := make(map[string]types.Result, len(semanticResults))
	order := make([]string, 0, len(semanticResults)+len(fullTextResults))

	for _, result := range semanticResults {
		if _, exists := resultMap[result.Content]; !exists {
			order = append(order, result.Content)
		}
		resultMap[result.Content] = result
	}

	for _, result := range fullTextResults {
		if existing, exists := resultMap[result.Content]; exists {
			existing.FullTextScore = result.FullTextScore
			resultMap[result.Content] = existing
		} else {
			order = append(order, result.Content)
			resultMap[result.Content] = result
		}
	}

	combined := make([]types.Result, 0, len(resultMap))
	for _, content := range order {
		combined = append(combined, resultMap[content])
	}

	return combined
}
