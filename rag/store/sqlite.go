package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/matanitah-healthee/slack-bot/rag"
)

// SqliteVectorStore implements rag.VectorStore on SQLite. Embeddings are
// stored as JSON and similarity is computed client-side, which is fine for
// the small knowledge bases a single bot deployment carries.
type SqliteVectorStore struct {
	db        *sql.DB
	tableName string
}

var _ rag.VectorStore = (*SqliteVectorStore)(nil)

// SqliteOptions configures the SQLite connection.
type SqliteOptions struct {
	Path      string
	TableName string // Default "rag_chunks"
}

// NewSqliteVectorStore creates a new SQLite-backed vector store.
func NewSqliteVectorStore(opts SqliteOptions) (*SqliteVectorStore, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "rag_chunks"
	}

	store := &SqliteVectorStore{
		db:        db,
		tableName: tableName,
	}

	if err := store.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// InitSchema creates the chunk table if it doesn't exist.
func (s *SqliteVectorStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			position INTEGER,
			content TEXT NOT NULL,
			embedding TEXT NOT NULL,
			metadata TEXT,
			url TEXT,
			title TEXT,
			created_at DATETIME NOT NULL
		);
	`, s.tableName)

	_, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Add inserts chunks, replacing existing rows with the same id.
func (s *SqliteVectorStore) Add(ctx context.Context, chunks []rag.Chunk) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, position, content, embedding, metadata, url, title, created_at)
		VALUES (?, (SELECT coalesce(max(position), 0) + 1 FROM %s), ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			embedding = excluded.embedding,
			metadata = excluded.metadata,
			url = excluded.url,
			title = excluded.title
	`, s.tableName, s.tableName)

	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding", chunk.ID)
		}

		embeddingJSON, err := json.Marshal(chunk.Embedding)
		if err != nil {
			return fmt.Errorf("failed to marshal embedding for chunk %s: %w", chunk.ID, err)
		}
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata for chunk %s: %w", chunk.ID, err)
		}

		createdAt := chunk.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}

		_, err = s.db.ExecContext(ctx, query,
			chunk.ID,
			chunk.Content,
			string(embeddingJSON),
			string(metadataJSON),
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

// Search loads all chunks and ranks them by cosine similarity. Ties keep
// insertion order via the position column.
func (s *SqliteVectorStore) Search(ctx context.Context, embedding []float32, k int) ([]rag.ChunkSearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	query := fmt.Sprintf(`
		SELECT id, content, embedding, metadata, url, title, created_at
		FROM %s ORDER BY position ASC
	`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	defer rows.Close()

	var results []rag.ChunkSearchResult
	for rows.Next() {
		var (
			chunk         rag.Chunk
			embeddingJSON string
			metadataJSON  sql.NullString
		)
		if err := rows.Scan(&chunk.ID, &chunk.Content, &embeddingJSON, &metadataJSON, &chunk.URL, &chunk.Title, &chunk.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		if err := json.Unmarshal([]byte(embeddingJSON), &chunk.Embedding); err != nil {
			return nil, fmt.Errorf("failed to unmarshal embedding for chunk %s: %w", chunk.ID, err)
		}
		if metadataJSON.Valid && metadataJSON.String != "null" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &chunk.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata for chunk %s: %w", chunk.ID, err)
			}
		}

		results = append(results, rag.ChunkSearchResult{
			Chunk: chunk,
			Score: CosineSimilarity(embedding, chunk.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if k < len(results) {
		results = results[:k]
	}
	if results == nil {
		results = []rag.ChunkSearchResult{}
	}
	return results, nil
}

// Stats returns the current chunk count.
func (s *SqliteVectorStore) Stats(ctx context.Context) (*rag.VectorStoreStats, error) {
	query := fmt.Sprintf(`SELECT count(*) FROM %s`, s.tableName)

	var total int
	if err := s.db.QueryRowContext(ctx, query).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	return &rag.VectorStoreStats{TotalChunks: total}, nil
}

// Close closes the database connection.
func (s *SqliteVectorStore) Close() error {
	return s.db.Close()
}
