package engine

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"
	"github.com/sashabaranov/go-openai"

	"github.com/docintel/docintel/rag/types"
)

// ChromemDB is a vector engine backed by a persistent chromem-go
// collection. Embeddings are computed through an OpenAI-compatible API.
type ChromemDB struct {
	collectionName  string
	collection      *chromem.Collection
	index           int
	client          *openai.Client
	db              *chromem.DB
	embeddingsModel string
}

// NewChromemDBCollection opens (or creates) a persistent chromem-go
// collection under path.
func NewChromemDBCollection(collection, path string, openaiClient *openai.Client, embeddingsModel string) (*ChromemDB, error) {
	db, err := chromem.NewPersistentDB(path, true)
	if err != nil {
		return nil, err
	}

	chromemDB := &ChromemDB{
		collectionName:  collection,
		index:           1,
		db:              db,
		client:          openaiClient,
		embeddingsModel: embeddingsModel,
	}

	c, err := db.GetOrCreateCollection(collection, nil, chromemDB.embedding())
	if err != nil {
		return nil, err
	}
	chromemDB.collection = c

	// Resume the document ID sequence when reopening an existing store.
	count := c.Count()
	if count > 0 {
		chromemDB.index = count + 1
	}

	return chromemDB, nil
}

func (c *ChromemDB) Count() int {
	return c.collection.Count()
}

func (c *ChromemDB) Reset() error {
	if err := c.db.DeleteCollection(c.collectionName); err != nil {
		return fmt.Errorf("error deleting collection: %w", err)
	}
	collection, err := c.db.GetOrCreateCollection(c.collectionName, nil, c.embedding())
	if err != nil {
		return fmt.Errorf("error creating collection: %w", err)
	}
	c.collection = collection
	c.index = 1

	return nil
}

func (c *ChromemDB) embedding() chromem.EmbeddingFunc {
	return chromem.EmbeddingFunc(
		func(ctx context.Context, text string) ([]float32, error) {
			resp, err := c.client.CreateEmbeddings(ctx,
				openai.EmbeddingRequestStrings{
					Input: []string{text},
					Model: openai.EmbeddingModel(c.embeddingsModel),
				},
			)
			if err != nil {
				return []float32{}, fmt.Errorf("error creating embedding: %w", err)
			}

			if len(resp.Data) == 0 {
				return []float32{}, fmt.Errorf("no response from embeddings API")
			}

			return resp.Data[0].Embedding, nil
		},
	)
}

func (c *ChromemDB) Store(s string, metadata map[string]string) error {
	if s == "" {
		return fmt.Errorf("empty string")
	}
	defer func() {
		c.index++
	}()

	return c.collection.AddDocuments(context.Background(), []chromem.Document{
		{
			Metadata: metadata,
			Content:  s,
			ID:       fmt.Sprint(c.index),
		},
	}, runtime.NumCPU())
}

func (c *ChromemDB) StoreDocuments(s []string, metadata map[string]string) error {
	if len(s) == 0 {
		return fmt.Errorf("no documents to store")
	}
	defer func() {
		c.index += len(s)
	}()

	documents := make([]chromem.Document, len(s))
	for i, content := range s {
		documents[i] = chromem.Document{
			Metadata: metadata,
			Content:  content,
			ID:       fmt.Sprint(c.index + i),
		}
	}

	return c.collection.AddDocuments(context.Background(), documents, runtime.NumCPU())
}

func (c *ChromemDB) Search(s string, similarEntries int) ([]types.Result, error) {
	// chromem errors when asked for more results than stored documents.
	if count := c.collection.Count(); similarEntries > count {
		similarEntries = count
	}
	if similarEntries == 0 {
		return []types.Result{}, nil
	}

	queryResults, err := c.collection.Query(context.Background(), s, similarEntries, nil, nil)
	if err != nil {
		return nil, err
	}

	results := make([]types.Result, 0, len(queryResults))
	for _, r := range queryResults {
		results = append(results, types.Result{
			ID:         r.ID,
			Metadata:   r.Metadata,
			Content:    r.Content,
			Similarity: r.Similarity,
		})
	}

	return results, nil
}
