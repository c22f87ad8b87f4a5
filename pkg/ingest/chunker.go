package ingest

import (
	"github.com/tmc/langchaingo/textsplitter"
)

// Chunker splits extracted syllabus text into overlapping chunks sized for
// embedding.
type Chunker struct {
	splitter textsplitter.TextSplitter
}

// NewChunker creates a recursive character chunker.
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	ts := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
	)

	return &Chunker{splitter: ts}
}

// Split splits text into chunks
func (c *Chunker) Split(text string) ([]string, error) {
	return c.splitter.SplitText(text)
}
