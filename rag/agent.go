package rag

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mudler/xlog"
	"github.com/sashabaranov/go-openai"

	"github.com/docintel/docintel/rag/types"
)

const answerPrompt = `You are an intelligent document analysis assistant. Your task is to answer questions
based on the provided context from enterprise documents.

Guidelines:
- Use ONLY the information provided in the context
- Be accurate and specific in your responses
- If the answer cannot be found in the context, clearly state this
- Provide relevant details and examples when available
- Maintain a professional tone

Context: %s

Question: %s

Answer:`

// Stats tracks what happened during knowledge base initialization.
type Stats struct {
	DocumentsLoaded int     `json:"documents_loaded"`
	PagesLoaded     int     `json:"pages_loaded"`
	ChunksCreated   int     `json:"chunks_created"`
	ProcessingTime  float64 `json:"processing_time"`
}

// Agent answers questions about the documents in a knowledge base. It
// wires the linear RAG pipeline: documents are loaded from a data
// directory, chunked and stored in the knowledge base engine; questions
// retrieve the most relevant chunks and feed them to a chat model.
type Agent struct {
	kb        *PersistentKB
	client    *openai.Client
	chatModel string
	dataDir   string
	topK      int

	mu          sync.Mutex
	initialized bool
	stats       Stats
}

// NewAgent creates an Agent over the given knowledge base. topK is the
// number of chunks retrieved per question.
func NewAgent(client *openai.Client, kb *PersistentKB, chatModel, dataDir string, topK int) *Agent {
	if topK <= 0 {
		topK = 3
	}

	return &Agent{
		kb:        kb,
		client:    client,
		chatModel: chatModel,
		dataDir:   dataDir,
		topK:      topK,
	}
}

// KB exposes the underlying knowledge base.
func (a *Agent) KB() *PersistentKB {
	return a.kb
}

// Initialize ingests every document from the data directory that is not
// already part of the knowledge base. Re-running against the same state
// directory does not duplicate chunks.
func (a *Agent) Initialize(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	start := time.Now()

	files, err := ListIngestibleFiles(a.dataDir)
	if err != nil {
		return err
	}

	stats := Stats{}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		stats.DocumentsLoaded++
		stats.PagesLoaded += CountPDFPages(f)

		if a.kb.EntryExists(f) {
			xlog.Debug("Skipping already ingested file", "file", f)
			continue
		}

		xlog.Info("Ingesting document", "file", filepath.Base(f))
		chunks, err := a.kb.Store(f, nil)
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", f, err)
		}
		stats.ChunksCreated += chunks
	}

	stats.ProcessingTime = time.Since(start).Seconds()
	a.stats = stats
	a.initialized = true

	xlog.Info("Knowledge base ready",
		"documents", stats.DocumentsLoaded,
		"pages", stats.PagesLoaded,
		"chunks", stats.ChunksCreated,
		"seconds", stats.ProcessingTime)

	return nil
}

// Initialized reports whether Initialize completed successfully.
func (a *Agent) Initialized() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.initialized
}

// Stats returns the statistics of the last initialization.
func (a *Agent) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// Search retrieves the k most relevant chunks for a query.
func (a *Agent) Search(query string, k int) ([]types.Result, error) {
	if k <= 0 {
		k = a.topK
	}
	return a.kb.Search(query, k)
}

// Ask answers a question grounded in the knowledge base. The retrieved
// chunks are formatted into the answer prompt and sent to the chat
// model with temperature 0.
func (a *Agent) Ask(ctx context.Context, question string) (string, error) {
	// Collections fed by uploads never go through Initialize, they are
	// ready as soon as they hold documents.
	if !a.Initialized() && a.kb.Count() == 0 {
		return "", fmt.Errorf("agent not initialized and knowledge base is empty")
	}

	results, err := a.kb.Search(question, a.topK)
	if err != nil {
		return "", fmt.Errorf("retrieval failed: %w", err)
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.chatModel,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(answerPrompt, formatContext(results), question),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from chat model")
	}

	return resp.Choices[0].Message.Content, nil
}

func formatContext(results []types.Result) string {
	if len(results) == 0 {
		return "No relevant documents found."
	}

	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, "Document: "+r.Content)
	}

	return strings.Join(parts, "\n\n")
}
