package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/docintel/docintel/pkg/chunk"
	"github.com/docintel/docintel/rag"
)

var _ = Describe("collectionRegistry", func() {
	It("should register and look up agents", func() {
		registry := newCollectionRegistry()
		agent := &rag.Agent{}

		Expect(registry.Add("docs", agent)).To(BeTrue())

		got, ok := registry.Get("docs")
		Expect(ok).To(BeTrue())
		Expect(got).To(BeIdenticalTo(agent))

		_, ok = registry.Get("missing")
		Expect(ok).To(BeFalse())
	})

	It("should refuse duplicate names", func() {
		registry := newCollectionRegistry()
		Expect(registry.Add("docs", &rag.Agent{})).To(BeTrue())
		Expect(registry.Add("docs", &rag.Agent{})).To(BeFalse())
	})

	It("should survive concurrent registration and lookup", func() {
		registry := newCollectionRegistry()

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			name := fmt.Sprintf("col-%d", i)
			wg.Add(2)
			go func() {
				defer wg.Done()
				registry.Add(name, &rag.Agent{})
			}()
			go func() {
				defer wg.Done()
				registry.Get(name)
			}()
		}
		wg.Wait()

		for i := 0; i < 50; i++ {
			_, ok := registry.Get(fmt.Sprintf("col-%d", i))
			Expect(ok).To(BeTrue())
		}
	})
})

var _ = Describe("openStoredCollections", func() {
	var (
		tempDir string
		cfg     *appConfig
	)

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "routes_test_*")
		Expect(err).ToNot(HaveOccurred())

		cfg = &appConfig{
			EmbeddingModel: "text-embedding-3-small",
			ChatModel:      "gpt-3.5-turbo",
			DataDir:        filepath.Join(tempDir, "data"),
			StateDir:       filepath.Join(tempDir, "state"),
			AssetDir:       filepath.Join(tempDir, "state", "assets"),
			Collection:     "documents",
			VectorEngine:   "chromem",
			TopK:           3,
		}
		Expect(os.MkdirAll(cfg.StateDir, 0755)).To(Succeed())
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
	})

	It("should reopen collections from their state files", func() {
		Expect(os.WriteFile(
			filepath.Join(cfg.StateDir, "collection-reports.json"),
			[]byte(`{"files":[]}`), 0644)).To(Succeed())

		registry := newCollectionRegistry()
		sourceManager := rag.NewSourceManager()
		openStoredCollections(cfg, cfg.openAIClient(), chunk.NewSplitter(1000, 200), registry, sourceManager)

		agent, ok := registry.Get("reports")
		Expect(ok).To(BeTrue())
		Expect(agent).ToNot(BeNil())
		Expect(agent.KB().ListEntries()).To(BeEmpty())
	})

	It("should leave already registered collections alone", func() {
		Expect(os.WriteFile(
			filepath.Join(cfg.StateDir, "collection-documents.json"),
			[]byte(`{"files":[]}`), 0644)).To(Succeed())

		defaultAgent := &rag.Agent{}
		registry := newCollectionRegistry()
		registry.Add("documents", defaultAgent)

		openStoredCollections(cfg, cfg.openAIClient(), chunk.NewSplitter(1000, 200), registry, rag.NewSourceManager())

		agent, ok := registry.Get("documents")
		Expect(ok).To(BeTrue())
		Expect(agent).To(BeIdenticalTo(defaultAgent))
	})
})
