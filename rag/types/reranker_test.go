package types_test

import (
	. "github.com/docintel/docintel/rag/types"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("WeightedReranker", func() {
	It("should order results by combined score, highest first", func() {
		reranker := NewWeightedReranker(0.5, 0.5)
		results, err := reranker.Rerank("query", []Result{
			{ID: "a", Similarity: 0.2, FullTextScore: 0.1},
			{ID: "b", Similarity: 0.9, FullTextScore: 0.8},
			{ID: "c", Similarity: 0.5, FullTextScore: 0.5},
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(results).To(HaveLen(3))
		Expect(results[0].ID).To(Equal("b"))
		Expect(results[1].ID).To(Equal("c"))
		Expect(results[2].ID).To(Equal("a"))
	})

	It("should weight the scores", func() {
		reranker := NewWeightedReranker(1.0, 0.0)
		results, err := reranker.Rerank("query", []Result{
			{ID: "vector", Similarity: 0.6, FullTextScore: 0.0},
			{ID: "fulltext", Similarity: 0.0, FullTextScore: 1.0},
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(results[0].ID).To(Equal("vector"))
		Expect(results[0].CombinedScore).To(BeNumerically("~", 0.6, 0.001))
		Expect(results[1].CombinedScore).To(BeNumerically("==", 0))
	})

	It("should not mutate the input slice", func() {
		reranker := NewWeightedReranker(0.5, 0.5)
		input := []Result{
			{ID: "a", Similarity: 0.1},
			{ID: "b", Similarity: 0.9},
		}
		_, err := reranker.Rerank("query", input)
		Expect(err).ToNot(HaveOccurred())
		Expect(input[0].ID).To(Equal("a"))
		Expect(input[0].CombinedScore).To(BeNumerically("==", 0))
	})

	It("should handle empty input", func() {
		reranker := NewWeightedReranker(0.5, 0.5)
		results, err := reranker.Rerank("query", nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(results).To(BeEmpty())
	})
})
