package rag_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/docintel/docintel/rag"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/docintel/docintel/pkg/chunk"
)

var _ = Describe("Agent", func() {
	var (
		tempDir string
		dataDir string
		engine  *fakeEngine
		kb      *PersistentKB
	)

	newTestAgent := func() *Agent {
		return NewAgent(nil, kb, "gpt-3.5-turbo", dataDir, 3)
	}

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "agent_test_*")
		Expect(err).ToNot(HaveOccurred())

		dataDir = filepath.Join(tempDir, "data")
		engine = &fakeEngine{}

		kb, err = NewPersistentCollectionKB(
			filepath.Join(tempDir, "state.json"),
			filepath.Join(tempDir, "assets"),
			engine,
			chunk.NewSplitter(1000, 200),
		)
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
	})

	Describe("Initialize", func() {
		It("should error when the data directory does not exist", func() {
			agent := newTestAgent()
			Expect(agent.Initialize(context.Background())).ToNot(Succeed())
			Expect(agent.Initialized()).To(BeFalse())
		})

		It("should error when the data directory holds no ingestible files", func() {
			Expect(os.MkdirAll(dataDir, 0755)).To(Succeed())
			agent := newTestAgent()
			Expect(agent.Initialize(context.Background())).ToNot(Succeed())
		})

		It("should ingest every document and record statistics", func() {
			Expect(os.MkdirAll(dataDir, 0755)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(dataDir, "a.txt"), []byte("first document content"), 0644)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(dataDir, "b.md"), []byte("second document content"), 0644)).To(Succeed())

			agent := newTestAgent()
			Expect(agent.Initialize(context.Background())).To(Succeed())
			Expect(agent.Initialized()).To(BeTrue())

			stats := agent.Stats()
			Expect(stats.DocumentsLoaded).To(Equal(2))
			Expect(stats.ChunksCreated).To(Equal(2))
			Expect(stats.ProcessingTime).To(BeNumerically(">=", 0))
			Expect(engine.Count()).To(Equal(2))
		})

		It("should not duplicate chunks when re-run", func() {
			Expect(os.MkdirAll(dataDir, 0755)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(dataDir, "a.txt"), []byte("some content"), 0644)).To(Succeed())

			agent := newTestAgent()
			Expect(agent.Initialize(context.Background())).To(Succeed())
			Expect(agent.Initialize(context.Background())).To(Succeed())

			Expect(engine.Count()).To(Equal(1))
			Expect(agent.Stats().ChunksCreated).To(Equal(0))
		})

		It("should stop when the context is cancelled", func() {
			Expect(os.MkdirAll(dataDir, 0755)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(dataDir, "a.txt"), []byte("content"), 0644)).To(Succeed())

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			agent := newTestAgent()
			Expect(agent.Initialize(ctx)).ToNot(Succeed())
		})
	})

	Describe("Search", func() {
		It("should retrieve the most relevant chunks", func() {
			Expect(os.MkdirAll(dataDir, 0755)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(dataDir, "a.txt"), []byte("the quarterly revenue grew"), 0644)).To(Succeed())

			agent := newTestAgent()
			Expect(agent.Initialize(context.Background())).To(Succeed())

			results, err := agent.Search("revenue", 3)
			Expect(err).ToNot(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Content).To(ContainSubstring("revenue"))
		})
	})

	Describe("Ask", func() {
		It("should error before initialization on an empty knowledge base", func() {
			agent := newTestAgent()
			_, err := agent.Ask(context.Background(), "what is this about?")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("not initialized"))
		})
	})
})
