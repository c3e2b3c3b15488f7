package engine

import (
	"encoding/json"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/mudler/xlog"

	"github.com/docintel/docintel/rag/types"
)

// FullTextIndex is a BM25 full-text index backed by bleve.
type FullTextIndex struct {
	index    bleve.Index
	path     string
	analyzer string
}

// NewFullTextIndex opens the bleve index at path, creating it with the
// given analyzer if it does not exist yet.
func NewFullTextIndex(path, analyzer string) (*FullTextIndex, error) {
	if analyzer == "" {
		analyzer = "en"
	}

	index, err := bleve.Open(path)
	if err != nil {
		index, err = bleve.New(path, indexMapping(analyzer))
		if err != nil {
			return nil, err
		}
	}

	return &FullTextIndex{index: index, path: path, analyzer: analyzer}, nil
}

func indexMapping(analyzer string) mapping.IndexMapping {
	m := bleve.NewIndexMapping()

	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = analyzer

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	docMapping.AddFieldMappingsAt("title", textFieldMapping)

	// Metadata is stored for retrieval but never analyzed.
	metadataFieldMapping := bleve.NewTextFieldMapping()
	metadataFieldMapping.Index = false
	metadataFieldMapping.Store = true
	metadataFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt("metadata", metadataFieldMapping)

	m.AddDocumentMapping("_default", docMapping)
	m.DefaultAnalyzer = analyzer

	return m
}

// Store indexes a single chunk under id.
func (i *FullTextIndex) Store(id, content string, metadata map[string]string) error {
	title := metadata["title"]
	if title == "" {
		title = metadata["source"]
	}

	doc := map[string]interface{}{
		"id":      id,
		"content": content,
		"title":   title,
	}

	if len(metadata) > 0 {
		if metadataJSON, err := json.Marshal(metadata); err == nil {
			doc["metadata"] = string(metadataJSON)
		}
	}

	return i.index.Index(id, doc)
}

// Delete removes a chunk from the index.
func (i *FullTextIndex) Delete(id string) error {
	return i.index.Delete(id)
}

// Reset drops the index on disk and recreates it empty.
func (i *FullTextIndex) Reset() error {
	if err := i.index.Close(); err != nil {
		xlog.Warn("Failed to close bleve index", "error", err)
	}
	if err := os.RemoveAll(i.path); err != nil {
		return err
	}

	index, err := bleve.New(i.path, indexMapping(i.analyzer))
	if err != nil {
		return err
	}
	i.index = index

	return nil
}

// Count returns the number of indexed chunks.
func (i *FullTextIndex) Count() int {
	count, err := i.index.DocCount()
	if err != nil {
		return 0
	}
	return int(count)
}

// Close releases the underlying bleve index.
func (i *FullTextIndex) Close() error {
	return i.index.Close()
}

// Search runs a match query against the index and returns up to
// maxResults chunks scored by BM25. Scores are clamped into [0, 1].
func (i *FullTextIndex) Search(query string, maxResults int) ([]types.Result, error) {
	matchQuery := bleve.NewMatchQuery(query)
	searchRequest := bleve.NewSearchRequest(matchQuery)
	searchRequest.Size = maxResults
	searchRequest.Fields = []string{"content", "title", "metadata"}

	searchResult, err := i.index.Search(searchRequest)
	if err != nil {
		return nil, err
	}

	results := make([]types.Result, 0, len(searchResult.Hits))
	for _, hit := range searchResult.Hits {
		score := hit.Score
		if score > 1.0 {
			score = 1.0
		}

		metadata := map[string]string{}
		if raw := fieldString(hit.Fields, "metadata"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
				metadata = map[string]string{}
			}
		}
		if title := fieldString(hit.Fields, "title"); title != "" {
			metadata["title"] = title
		}

		results = append(results, types.Result{
			ID:            hit.ID,
			Content:       fieldString(hit.Fields, "content"),
			Metadata:      metadata,
			FullTextScore: float32(score),
		})
	}

	return results, nil
}

// fieldString extracts a string field from a bleve search hit. Stored
// fields may come back as either a string or a slice of values.
func fieldString(fields map[string]interface{}, name string) string {
	val, ok := fields[name]
	if !ok {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	if arr, ok := val.([]interface{}); ok && len(arr) > 0 {
		if str, ok := arr[0].(string); ok {
			return str
		}
	}
	return ""
}
