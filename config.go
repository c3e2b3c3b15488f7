package main

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/mudler/xlog"
	"github.com/sashabaranov/go-openai"
)

type appConfig struct {
	OpenAIKey     string
	OpenAIBaseURL string

	EmbeddingModel string
	ChatModel      string

	DataDir       string
	StateDir      string
	AssetDir      string
	ListenAddress string

	Collection   string
	VectorEngine string
	DatabaseURL  string

	ChunkSize    int
	ChunkOverlap int
	TopK         int
}

func loadConfig() *appConfig {
	// Mirrors the usual .env workflow, a missing file is fine.
	if err := godotenv.Load(); err == nil {
		xlog.Debug("Loaded environment from .env")
	}

	stateDir := envOrDefault("STATE_DIR", "./state")

	return &appConfig{
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:  os.Getenv("OPENAI_BASE_URL"),
		EmbeddingModel: envOrDefault("EMBEDDING_MODEL", "text-embedding-3-small"),
		ChatModel:      envOrDefault("CHAT_MODEL", openai.GPT3Dot5Turbo),
		DataDir:        envOrDefault("DATA_DIR", "./data"),
		StateDir:       stateDir,
		AssetDir:       envOrDefault("ASSET_DIR", filepath.Join(stateDir, "assets")),
		ListenAddress:  envOrDefault("LISTEN_ADDRESS", ":8080"),
		Collection:     envOrDefault("COLLECTION", "documents"),
		VectorEngine:   envOrDefault("VECTOR_ENGINE", "chromem"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		ChunkSize:      envIntOrDefault("CHUNK_SIZE", 1000),
		ChunkOverlap:   envIntOrDefault("CHUNK_OVERLAP", 200),
		TopK:           envIntOrDefault("TOP_K", 3),
	}
}

func (c *appConfig) openAIClient() *openai.Client {
	config := openai.DefaultConfig(c.OpenAIKey)
	if c.OpenAIBaseURL != "" {
		config.BaseURL = c.OpenAIBaseURL
	}
	return openai.NewClientWithConfig(config)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		xlog.Warn("Invalid integer in environment, using default", "key", key, "value", v)
		return fallback
	}
	return parsed
}
