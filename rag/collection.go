package rag

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mudler/xlog"
	"github.com/sashabaranov/go-openai"

	"github.com/docintel/docintel/pkg/chunk"
	"github.com/docintel/docintel/rag/engine"
	"github.com/docintel/docintel/rag/types"
)

const collectionPrefix = "collection-"

// NewPersistentChromeCollection creates a persistent knowledge base
// collection backed by the ChromemDB engine plus a bleve full-text
// index.
func NewPersistentChromeCollection(llmClient *openai.Client, collectionName, dbPath, assetDir, embeddingModel string, splitter *chunk.Splitter) (*PersistentKB, error) {
	chromemDB, err := engine.NewChromemDBCollection(collectionName, dbPath, llmClient, embeddingModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create ChromemDB: %w", err)
	}

	return newHybridCollection(chromemDB, collectionName, dbPath, assetDir, splitter)
}

// NewPersistentPostgresCollection creates a persistent knowledge base
// collection backed by PostgreSQL with pgvector, plus a bleve full-text
// index.
func NewPersistentPostgresCollection(llmClient *openai.Client, collectionName, databaseURL, dbPath, assetDir, embeddingModel string, splitter *chunk.Splitter) (*PersistentKB, error) {
	postgresDB, err := engine.NewPostgresDBCollection(collectionName, databaseURL, llmClient, embeddingModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgresDB: %w", err)
	}

	return newHybridCollection(postgresDB, collectionName, dbPath, assetDir, splitter)
}

func newHybridCollection(semanticEngine Engine, collectionName, dbPath, assetDir string, splitter *chunk.Splitter) (*PersistentKB, error) {
	fullTextIndex, err := engine.NewFullTextIndex(
		filepath.Join(dbPath, "bleve", collectionName),
		os.Getenv("BLEVE_ANALYZER"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create full-text index: %w", err)
	}

	vectorWeight, bm25Weight := hybridWeights()
	hybridEngine := engine.NewHybridSearchEngine(
		semanticEngine,
		types.NewWeightedReranker(vectorWeight, bm25Weight),
		fullTextIndex,
	)

	persistentKB, err := NewPersistentCollectionKB(
		filepath.Join(dbPath, fmt.Sprintf("%s%s.json", collectionPrefix, collectionName)),
		assetDir,
		hybridEngine,
		splitter,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create PersistentKB: %w", err)
	}

	return persistentKB, nil
}

func hybridWeights() (vectorWeight, bm25Weight float64) {
	vectorWeight = 0.5
	bm25Weight = 0.5
	if w := os.Getenv("HYBRID_SEARCH_VECTOR_WEIGHT"); w != "" {
		if parsed, err := strconv.ParseFloat(w, 64); err == nil {
			vectorWeight = parsed
		} else {
			xlog.Warn("Invalid HYBRID_SEARCH_VECTOR_WEIGHT, using default", "value", w)
		}
	}
	if w := os.Getenv("HYBRID_SEARCH_BM25_WEIGHT"); w != "" {
		if parsed, err := strconv.ParseFloat(w, 64); err == nil {
			bm25Weight = parsed
		} else {
			xlog.Warn("Invalid HYBRID_SEARCH_BM25_WEIGHT, using default", "value", w)
		}
	}
	return vectorWeight, bm25Weight
}

// ListAllCollections lists all collections in the database directory.
func ListAllCollections(dbPath string) []string {
	collections := []string{}
	files, err := os.ReadDir(dbPath)
	if err != nil {
		return collections
	}

	for _, f := range files {
		if strings.HasPrefix(f.Name(), collectionPrefix) && strings.HasSuffix(f.Name(), ".json") {
			collections = append(collections,
				strings.TrimPrefix(strings.TrimSuffix(f.Name(), ".json"), collectionPrefix))
		}
	}

	return collections
}
