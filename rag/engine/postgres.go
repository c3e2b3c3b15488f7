package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
	"github.com/sashabaranov/go-openai"

	"github.com/docintel/docintel/rag/types"
)

// PostgresDB is a vector engine backed by PostgreSQL with the pgvector
// extension. One table per collection.
type PostgresDB struct {
	pool            *pgxpool.Pool
	collectionName  string
	tableName       string
	client          *openai.Client
	embeddingsModel string
	embeddingDims   int
}

// NewPostgresDBCollection connects to databaseURL and prepares the
// collection table, creating the pgvector extension if needed.
func NewPostgresDBCollection(collectionName, databaseURL string, openaiClient *openai.Client, embeddingsModel string) (*PostgresDB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for the PostgreSQL engine")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// The vector column needs a fixed dimensionality, probe the model for it.
	testEmbedding, err := embedText(openaiClient, embeddingsModel, "test")
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to probe embedding dimensions: %w", err)
	}

	pg := &PostgresDB{
		pool:            pool,
		collectionName:  collectionName,
		tableName:       sanitizeTableName(collectionName),
		client:          openaiClient,
		embeddingsModel: embeddingsModel,
		embeddingDims:   len(testEmbedding),
	}

	if err := pg.setupDatabase(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	return pg, nil
}

func sanitizeTableName(name string) string {
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, ".", "_")
	name = strings.ReplaceAll(name, " ", "_")
	if len(name) > 0 && (name[0] < 'a' || name[0] > 'z') && (name[0] < 'A' || name[0] > 'Z') {
		name = "col_" + name
	}
	return "documents_" + strings.ToLower(name)
}

func embedText(client *openai.Client, model, text string) ([]float32, error) {
	resp, err := client.CreateEmbeddings(context.Background(),
		openai.EmbeddingRequestStrings{
			Input: []string{text},
			Model: openai.EmbeddingModel(model),
		},
	)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding data returned")
	}
	return resp.Data[0].Embedding, nil
}

func (p *PostgresDB) setupDatabase() error {
	ctx := context.Background()

	if _, err := p.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to enable pgvector extension: %w", err)
	}

	createTable := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id UUID PRIMARY KEY,
		content TEXT NOT NULL,
		metadata JSONB,
		embedding vector(%d)
	)`, p.tableName, p.embeddingDims)
	if _, err := p.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	createIndex := fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s USING hnsw (embedding vector_cosine_ops)",
		p.tableName, p.tableName)
	if _, err := p.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create vector index: %w", err)
	}

	return nil
}

func (p *PostgresDB) Count() int {
	var count int
	err := p.pool.QueryRow(context.Background(),
		fmt.Sprintf("SELECT COUNT(*) FROM %s", p.tableName)).Scan(&count)
	if err != nil {
		return 0
	}
	return count
}

func (p *PostgresDB) Reset() error {
	_, err := p.pool.Exec(context.Background(),
		fmt.Sprintf("TRUNCATE TABLE %s", p.tableName))
	if err != nil {
		return fmt.Errorf("failed to truncate table: %w", err)
	}
	return nil
}

func (p *PostgresDB) Store(s string, metadata map[string]string) error {
	if s == "" {
		return fmt.Errorf("empty string")
	}

	embedding, err := embedText(p.client, p.embeddingsModel, s)
	if err != nil {
		return fmt.Errorf("error creating embedding: %w", err)
	}

	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("error marshaling metadata: %w", err)
	}

	_, err = p.pool.Exec(context.Background(),
		fmt.Sprintf("INSERT INTO %s (id, content, metadata, embedding) VALUES ($1, $2, $3, $4)", p.tableName),
		uuid.NewString(), s, metadataJSON, pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("error inserting document: %w", err)
	}

	return nil
}

func (p *PostgresDB) StoreDocuments(s []string, metadata map[string]string) error {
	if len(s) == 0 {
		return fmt.Errorf("no documents to store")
	}

	for _, content := range s {
		if err := p.Store(content, metadata); err != nil {
			return err
		}
	}

	return nil
}

func (p *PostgresDB) Search(s string, similarEntries int) ([]types.Result, error) {
	embedding, err := embedText(p.client, p.embeddingsModel, s)
	if err != nil {
		return nil, fmt.Errorf("error creating query embedding: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT id, content, metadata, 1 - (embedding <=> $1) AS similarity
		 FROM %s ORDER BY embedding <=> $1 LIMIT $2`, p.tableName)

	rows, err := p.pool.Query(context.Background(), query,
		pgvector.NewVector(embedding), similarEntries)
	if err != nil {
		return nil, fmt.Errorf("error querying documents: %w", err)
	}
	defer rows.Close()

	results := []types.Result{}
	for rows.Next() {
		var (
			id           string
			content      string
			metadataJSON []byte
			similarity   float64
		)
		if err := rows.Scan(&id, &content, &metadataJSON, &similarity); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}

		metadata := map[string]string{}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &metadata); err != nil {
				metadata = map[string]string{}
			}
		}

		results = append(results, types.Result{
			ID:         id,
			Content:    content,
			Metadata:   metadata,
			Similarity: float32(similarity),
		})
	}

	return results, rows.Err()
}

// Close releases the connection pool.
func (p *PostgresDB) Close() {
	p.pool.Close()
}
