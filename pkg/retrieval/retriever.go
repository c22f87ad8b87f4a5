package retrieval

import (
	"context"
	"fmt"

	"github.com/mikeboe/tutor-helper/pkg/agentic"
	"github.com/mikeboe/tutor-helper/pkg/vectorstore"
)

// Embedder turns search queries into vectors.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Searcher is the vector store surface the retriever needs.
type Searcher interface {
	Search(ctx context.Context, queryEmbedding []float32, topK int, sourceFilter string) ([]vectorstore.SearchResult, error)
}

// SyllabusRetriever maps a text query to the top-ranked syllabus chunks. It
// is the retrieval capability behind the answering loop and the chat tools.
type SyllabusRetriever struct {
	embedder Embedder
	store    Searcher
	topK     int
	source   string
}

// Option configures a SyllabusRetriever.
type Option func(*SyllabusRetriever)

// WithTopK overrides how many chunks a query returns.
func WithTopK(n int) Option {
	return func(r *SyllabusRetriever) {
		if n > 0 {
			r.topK = n
		}
	}
}

// WithSource restricts retrieval to one source document.
func WithSource(source string) Option {
	return func(r *SyllabusRetriever) {
		r.source = source
	}
}

// New builds a retriever over an embedder and a chunk store.
func New(embedder Embedder, store Searcher, opts ...Option) *SyllabusRetriever {
	r := &SyllabusRetriever{
		embedder: embedder,
		store:    store,
		topK:     4,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SearchChunks returns scored chunks for a query, for callers that need the
// source metadata alongside the text.
func (r *SyllabusRetriever) SearchChunks(ctx context.Context, query string) ([]vectorstore.SearchResult, error) {
	embedding, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := r.store.Search(ctx, embedding, r.topK, r.source)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}

	return results, nil
}

// Retrieve implements the retrieval capability of the answering loop.
func (r *SyllabusRetriever) Retrieve(ctx context.Context, query string) ([]agentic.Passage, error) {
	results, err := r.SearchChunks(ctx, query)
	if err != nil {
		return nil, err
	}

	passages := make([]agentic.Passage, 0, len(results))
	for _, result := range results {
		passages = append(passages, agentic.Passage{Content: result.Chunk.Content})
	}

	return passages, nil
}
