package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Chunk represents one embedded slice of syllabus material
type Chunk struct {
	ID        string                 `json:"id"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata"`
	Embedding []float32              `json:"embedding,omitempty"`
}

// SyllabusStore handles pgvector operations for a syllabus collection
type SyllabusStore struct {
	pool      *pgxpool.Pool
	tableName string
}

// isValidTableName validates that a table name contains only safe characters
// to prevent SQL injection attacks
func isValidTableName(name string) bool {
	// Only allow alphanumeric characters and underscores
	// Table names must start with a letter or underscore and be between 1-63 chars (PostgreSQL limit)
	matched, _ := regexp.MatchString(`^[a-z_][a-zA-Z0-9_]{0,62}$`, name)
	return matched
}

// NewSyllabusStore creates a store bound to one collection table
func NewSyllabusStore(pool *pgxpool.Pool, tableName string) (*SyllabusStore, error) {
	if !isValidTableName(tableName) {
		return nil, fmt.Errorf("invalid table name: must contain only alphanumeric characters and underscores, start with a letter or underscore, and be 1-63 characters long")
	}
	return &SyllabusStore{
		pool:      pool,
		tableName: tableName,
	}, nil
}

// TableName returns the collection table this store writes to.
func (s *SyllabusStore) TableName() string {
	return s.tableName
}

// AddChunks inserts embedded chunks into the collection
func (s *SyllabusStore) AddChunks(ctx context.Context, chunks []Chunk) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (content, metadata, embedding)
		VALUES ($1, $2, $3)
	`, pgx.Identifier{s.tableName}.Sanitize())

	batch := &pgx.Batch{}
	for _, chunk := range chunks {
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}

		embedding := pgvector.NewVector(chunk.Embedding)
		batch.Queue(query, chunk.Content, metadataJSON, embedding)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range chunks {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
	}

	return nil
}

// SearchResult represents a search hit with its cosine similarity score
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Search performs a similarity search, optionally restricted to one source document
func (s *SyllabusStore) Search(ctx context.Context, queryEmbedding []float32, topK int, sourceFilter string) ([]SearchResult, error) {
	var query string
	var args []interface{}

	embedding := pgvector.NewVector(queryEmbedding)

	if sourceFilter != "" {
		query = fmt.Sprintf(`
			SELECT id, content, metadata, 1 - (embedding <=> $1) as similarity
			FROM %s
			WHERE metadata->>'source' = $2
			ORDER BY embedding <=> $1
			LIMIT $3
		`, pgx.Identifier{s.tableName}.Sanitize())
		args = []interface{}{embedding, sourceFilter, topK}
	} else {
		query = fmt.Sprintf(`
			SELECT id, content, metadata, 1 - (embedding <=> $1) as similarity
			FROM %s
			ORDER BY embedding <=> $1
			LIMIT $2
		`, pgx.Identifier{s.tableName}.Sanitize())
		args = []interface{}{embedding, topK}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute similarity search: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var chunk Chunk
		var metadataJSON []byte
		var similarity float64

		if err := rows.Scan(&chunk.ID, &chunk.Content, &metadataJSON, &similarity); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		if err := json.Unmarshal(metadataJSON, &chunk.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}

		results = append(results, SearchResult{
			Chunk: chunk,
			Score: similarity,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return results, nil
}

// DeleteBySource removes every chunk belonging to a source document and
// reports how many rows went away.
func (s *SyllabusStore) DeleteBySource(ctx context.Context, source string) (int64, error) {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE metadata->>'source' = $1
	`, pgx.Identifier{s.tableName}.Sanitize())

	tag, err := s.pool.Exec(ctx, query, source)
	if err != nil {
		return 0, fmt.Errorf("failed to delete chunks: %w", err)
	}

	return tag.RowsAffected(), nil
}

// ListSources returns the distinct source documents in the collection
func (s *SyllabusStore) ListSources(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT metadata->>'source'
		FROM %s
		WHERE metadata->>'source' IS NOT NULL
		ORDER BY 1
	`, pgx.Identifier{s.tableName}.Sanitize())

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var source string
		if err := rows.Scan(&source); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		sources = append(sources, source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return sources, nil
}
