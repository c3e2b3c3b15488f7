package engine_test

import (
	"fmt"
	"net/http"
	"os"
	"time"

	. "github.com/docintel/docintel/rag/engine"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sashabaranov/go-openai"
)

// These specs need a running OpenAI-compatible embeddings endpoint
// (LocalAI, for instance) and skip otherwise.
var _ = Describe("ChromemDB", func() {
	var (
		tempDir        string
		openaiClient   *openai.Client
		collectionName string
		embeddingModel string
	)

	BeforeEach(func() {
		endpoint := os.Getenv("LOCALAI_ENDPOINT")
		if endpoint == "" {
			endpoint = "http://localhost:8081"
		}

		httpClient := &http.Client{Timeout: 5 * time.Second}
		available := false
		for _, path := range []string{"/health", "/ready", "/v1/models", "/"} {
			resp, err := httpClient.Get(endpoint + path)
			if err == nil && resp.StatusCode < 500 {
				resp.Body.Close()
				available = true
				break
			}
			if resp != nil {
				resp.Body.Close()
			}
		}
		if !available {
			Skip(fmt.Sprintf("no embeddings endpoint available at %s", endpoint))
		}

		var err error
		tempDir, err = os.MkdirTemp("", "chromem_test_*")
		Expect(err).ToNot(HaveOccurred())

		collectionName = fmt.Sprintf("test_collection_%d", time.Now().UnixNano())
		embeddingModel = os.Getenv("EMBEDDING_MODEL")
		if embeddingModel == "" {
			embeddingModel = "granite-embedding-107m-multilingual"
		}

		config := openai.DefaultConfig("sk-test")
		config.BaseURL = endpoint
		openaiClient = openai.NewClientWithConfig(config)
	})

	AfterEach(func() {
		if tempDir != "" {
			os.RemoveAll(tempDir)
		}
	})

	It("should create a new collection", func() {
		db, err := NewChromemDBCollection(collectionName, tempDir, openaiClient, embeddingModel)
		Expect(err).ToNot(HaveOccurred())
		Expect(db).ToNot(BeNil())
		Expect(db.Count()).To(Equal(0))
	})

	It("should store and search documents", func() {
		db, err := NewChromemDBCollection(collectionName, tempDir, openaiClient, embeddingModel)
		Expect(err).ToNot(HaveOccurred())

		Expect(db.Store("the capital of France is Paris", nil)).To(Succeed())
		Expect(db.Store("the capital of Italy is Rome", nil)).To(Succeed())
		Expect(db.Count()).To(Equal(2))

		results, err := db.Search("France", 1)
		Expect(err).ToNot(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(results[0].Content).To(ContainSubstring("Paris"))
	})

	It("should store batches of documents", func() {
		db, err := NewChromemDBCollection(collectionName, tempDir, openaiClient, embeddingModel)
		Expect(err).ToNot(HaveOccurred())

		err = db.StoreDocuments([]string{"first chunk", "second chunk", "third chunk"},
			map[string]string{"source": "test.txt"})
		Expect(err).ToNot(HaveOccurred())
		Expect(db.Count()).To(Equal(3))
	})

	It("should refuse empty content", func() {
		db, err := NewChromemDBCollection(collectionName, tempDir, openaiClient, embeddingModel)
		Expect(err).ToNot(HaveOccurred())
		Expect(db.Store("", nil)).ToNot(Succeed())
	})

	It("should resume the ID sequence when reopened", func() {
		db, err := NewChromemDBCollection(collectionName, tempDir, openaiClient, embeddingModel)
		Expect(err).ToNot(HaveOccurred())
		Expect(db.Store("some content", nil)).To(Succeed())

		reopened, err := NewChromemDBCollection(collectionName, tempDir, openaiClient, embeddingModel)
		Expect(err).ToNot(HaveOccurred())
		Expect(reopened.Count()).To(Equal(1))

		Expect(reopened.Store("more content", nil)).To(Succeed())
		Expect(reopened.Count()).To(Equal(2))
	})

	It("should reset the collection", func() {
		db, err := NewChromemDBCollection(collectionName, tempDir, openaiClient, embeddingModel)
		Expect(err).ToNot(HaveOccurred())
		Expect(db.Store("some content", nil)).To(Succeed())
		Expect(db.Reset()).To(Succeed())
		Expect(db.Count()).To(Equal(0))
	})
})
