package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matanitah-healthee/slack-bot/rag"
)

// DBPool defines the interface for database connection pools, so tests can
// substitute a mock.
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PgVectorStore implements rag.VectorStore on PostgreSQL with the pgvector
// extension. Chunks are keyed by id; nearest-neighbor queries use the
// cosine distance operator. Ties on score are broken by a monotonically
// increasing position column, so results stay in insertion order.
type PgVectorStore struct {
	pool      DBPool
	tableName string
	dimension int
}

var _ rag.VectorStore = (*PgVectorStore)(nil)

// PgVectorOptions configures the Postgres connection.
type PgVectorOptions struct {
	ConnString string
	TableName  string // Default "rag_chunks"
	Dimension  int    // Default 384
}

// NewPgVectorStore creates a new Postgres-backed vector store.
func NewPgVectorStore(ctx context.Context, opts PgVectorOptions) (*PgVectorStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	return NewPgVectorStoreWithPool(pool, opts.TableName, opts.Dimension), nil
}

// NewPgVectorStoreWithPool creates a store with an existing pool. Useful
// for testing with mocks.
func NewPgVectorStoreWithPool(pool DBPool, tableName string, dimension int) *PgVectorStore {
	if tableName == "" {
		tableName = "rag_chunks"
	}
	if dimension <= 0 {
		dimension = 384
	}
	return &PgVectorStore{
		pool:      pool,
		tableName: tableName,
		dimension: dimension,
	}
}

// InitSchema creates the chunk table and the pgvector extension if needed.
func (s *PgVectorStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE EXTENSION IF NOT EXISTS vector;
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			position BIGSERIAL,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			metadata JSONB,
			url TEXT,
			title TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`, s.tableName, s.dimension)

	_, err := s.pool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Add inserts chunks, replacing existing rows with the same id.
func (s *PgVectorStore) Add(ctx context.Context, chunks []rag.Chunk) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, content, embedding, metadata, url, title, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata,
			url = EXCLUDED.url,
			title = EXCLUDED.title
	`, s.tableName)

	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding", chunk.ID)
		}

		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata for chunk %s: %w", chunk.ID, err)
		}

		createdAt := chunk.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}

		_, err = s.pool.Exec(ctx, query,
			chunk.ID,
			chunk.Content,
			vectorLiteral(chunk.Embedding),
			metadataJSON,
			chunk.URL,
			chunk.Title,
			createdAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", chunk.ID, err)
		}
	}
	return nil
}

// Search returns the k nearest chunks by cosine similarity.
func (s *PgVectorStore) Search(ctx context.Context, embedding []float32, k int) ([]rag.ChunkSearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	query := fmt.Sprintf(`
		SELECT id, content, metadata, url, title, created_at,
		       1 - (embedding <=> $1) AS similarity
		FROM %s
		ORDER BY similarity DESC, position ASC
		LIMIT $2
	`, s.tableName)

	rows, err := s.pool.Query(ctx, query, vectorLiteral(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	defer rows.Close()

	results := make([]rag.ChunkSearchResult, 0, k)
	for rows.Next() {
		var (
			chunk        rag.Chunk
			metadataJSON []byte
			score        float64
		)
		if err := rows.Scan(&chunk.ID, &chunk.Content, &metadataJSON, &chunk.URL, &chunk.Title, &chunk.CreatedAt, &score); err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &chunk.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata for chunk %s: %w", chunk.ID, err)
			}
		}
		results = append(results, rag.ChunkSearchResult{Chunk: chunk, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	return results, nil
}

// Stats returns the current chunk count.
func (s *PgVectorStore) Stats(ctx context.Context) (*rag.VectorStoreStats, error) {
	query := fmt.Sprintf(`SELECT count(*), coalesce(max(created_at), 'epoch'::timestamptz) FROM %s`, s.tableName)

	var (
		total       int
		lastUpdated time.Time
	)
	if err := s.pool.QueryRow(ctx, query).Scan(&total, &lastUpdated); err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}

	return &rag.VectorStoreStats{
		TotalChunks: total,
		Dimension:   s.dimension,
		LastUpdated: lastUpdated,
	}, nil
}

// Close closes the connection pool.
func (s *PgVectorStore) Close() error {
	s.pool.Close()
	return nil
}

// vectorLiteral renders an embedding in pgvector's input syntax.
func vectorLiteral(embedding []float32) string {
	buf := make([]byte, 0, len(embedding)*10)
	buf = append(buf, '[')
	for i, v := range embedding {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = fmt.Appendf(buf, "%g", v)
	}
	buf = append(buf, ']')
	return string(buf)
}
