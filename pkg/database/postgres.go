package database

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps the pgx pool shared by every store in the backend.
type DB struct {
	Pool *pgxpool.Pool
}

// Sized for the API server plus the background report worker.
const (
	maxConns = 25
	minConns = 5
)

// Connect opens a pooled connection and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	cfg.MaxConns = maxConns
	cfg.MinConns = minConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}

// EnsureVectorExtension installs pgvector if it is missing.
func (db *DB) EnsureVectorExtension(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	return err
}

// Collection table names are interpolated into DDL, so they must be plain
// identifiers.
var identRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// HNSW indexes support at most 2000 dimensions; larger embeddings fall back
// to exact scans.
const maxIndexDims = 2000

// CreateCollectionTable creates the chunk table for one syllabus collection,
// with an HNSW index when the embedding size allows one.
func (db *DB) CreateCollectionTable(ctx context.Context, tableName string, dimension int) error {
	if !identRe.MatchString(tableName) {
		return fmt.Errorf("invalid collection table name %q", tableName)
	}

	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			content TEXT NOT NULL,
			metadata JSONB,
			embedding vector(%d),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`, tableName, dimension)
	if _, err := db.Pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	if dimension > maxIndexDims {
		return nil
	}

	idx := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s USING hnsw (embedding vector_cosine_ops)
	`, tableName, tableName)
	if _, err := db.Pool.Exec(ctx, idx); err != nil {
		return fmt.Errorf("failed to create index on %s: %w", tableName, err)
	}

	return nil
}
