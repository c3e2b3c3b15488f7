package main

import (
	"context"
	"flag"
	"os"

	"github.com/mudler/xlog"
	"github.com/sashabaranov/go-openai"

	"github.com/docintel/docintel/pkg/chunk"
	"github.com/docintel/docintel/rag"
)

func main() {
	var (
		interactive = flag.Bool("interactive", false, "chat with the documents on the terminal instead of serving the API")
		demo        = flag.Bool("demo", false, "run the canned demo questions and exit")
	)
	flag.Parse()

	cfg := loadConfig()

	if cfg.OpenAIKey == "" && cfg.OpenAIBaseURL == "" {
		xlog.Error("OPENAI_API_KEY not set and no OPENAI_BASE_URL configured")
		os.Exit(1)
	}

	client := cfg.openAIClient()
	splitter := chunk.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)

	kb, err := newCollection(cfg, client, cfg.Collection, splitter)
	if err != nil {
		xlog.Error("Failed to open collection", "collection", cfg.Collection, "error", err)
		os.Exit(1)
	}

	agent := rag.NewAgent(client, kb, cfg.ChatModel, cfg.DataDir, cfg.TopK)

	if *interactive || *demo {
		if err := agent.Initialize(context.Background()); err != nil {
			xlog.Error("Failed to initialize agent", "error", err)
			os.Exit(1)
		}

		if *demo {
			runDemo(agent)
			return
		}
		runChat(agent)
		return
	}

	// Server mode: an empty data directory is not fatal, collections can
	// be populated through uploads.
	if err := agent.Initialize(context.Background()); err != nil {
		xlog.Warn("Skipping data directory ingestion", "error", err)
	}

	sourceManager := rag.NewSourceManager()
	sourceManager.RegisterCollection(cfg.Collection, kb)
	sourceManager.Start()

	startAPI(cfg, client, splitter, agent, sourceManager)
}

func newCollection(cfg *appConfig, client *openai.Client, name string, splitter *chunk.Splitter) (*rag.PersistentKB, error) {
	switch cfg.VectorEngine {
	case "postgres":
		return rag.NewPersistentPostgresCollection(client, name, cfg.DatabaseURL, cfg.StateDir, cfg.AssetDir, cfg.EmbeddingModel, splitter)
	default:
		return rag.NewPersistentChromeCollection(client, name, cfg.StateDir, cfg.AssetDir, cfg.EmbeddingModel, splitter)
	}
}
