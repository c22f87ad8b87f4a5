package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mikeboe/tutor-helper/pkg/vectorstore"
)

// ErrNoText is returned when a document yields no indexable text.
var ErrNoText = errors.New("no text extracted")

// Extractor pulls text out of source documents.
type Extractor interface {
	ExtractURL(ctx context.Context, url string) (string, error)
	ExtractDocument(ctx context.Context, data []byte) (string, error)
}

// DocumentEmbedder embeds chunk batches at index time.
type DocumentEmbedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// ChunkStore persists embedded chunks for one collection.
type ChunkStore interface {
	AddChunks(ctx context.Context, chunks []vectorstore.Chunk) error
	DeleteBySource(ctx context.Context, source string) (int64, error)
}

// Summary reports what one ingestion run did.
type Summary struct {
	Source   string `json:"source"`
	Chunks   int    `json:"chunks"`
	Replaced int64  `json:"replaced"`
}

// Ingestor runs the extract-chunk-embed-store pipeline for syllabus
// documents. Re-ingesting a source replaces its previous chunks.
type Ingestor struct {
	extractor Extractor
	chunker   *Chunker
	embedder  DocumentEmbedder
	store     ChunkStore
	logger    *slog.Logger
}

// NewIngestor wires the ingestion pipeline.
func NewIngestor(extractor Extractor, chunker *Chunker, embedder DocumentEmbedder, store ChunkStore, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		store:     store,
		logger:    logger,
	}
}

// IngestDocument indexes an uploaded document under the given source name.
func (ing *Ingestor) IngestDocument(ctx context.Context, source string, data []byte) (*Summary, error) {
	text, err := ing.extractor.ExtractDocument(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("failed to extract document: %w", err)
	}
	return ing.ingestText(ctx, source, text)
}

// IngestURL indexes a document reachable at a public URL.
func (ing *Ingestor) IngestURL(ctx context.Context, source, url string) (*Summary, error) {
	text, err := ing.extractor.ExtractURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to extract document: %w", err)
	}
	return ing.ingestText(ctx, source, text)
}

// IngestText indexes already-extracted plain text under the given source
// name.
func (ing *Ingestor) IngestText(ctx context.Context, source, text string) (*Summary, error) {
	return ing.ingestText(ctx, source, text)
}

func (ing *Ingestor) ingestText(ctx context.Context, source, text string) (*Summary, error) {
	chunks, err := ing.chunker.Split(text)
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w from source %s", ErrNoText, source)
	}

	vectors, err := ing.embedder.EmbedDocuments(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedding count mismatch: %d vectors for %d chunks", len(vectors), len(chunks))
	}

	replaced, err := ing.store.DeleteBySource(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to delete previous chunks: %w", err)
	}

	records := make([]vectorstore.Chunk, len(chunks))
	for i, content := range chunks {
		records[i] = vectorstore.Chunk{
			Content: content,
			Metadata: map[string]interface{}{
				"source": source,
				"chunk":  i,
			},
			Embedding: vectors[i],
		}
	}

	if err := ing.store.AddChunks(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to store chunks: %w", err)
	}

	ing.logger.Info("Ingested syllabus document", "source", source, "chunks", len(chunks), "replaced", replaced)

	return &Summary{
		Source:   source,
		Chunks:   len(chunks),
		Replaced: replaced,
	}, nil
}
