package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/mikeboe/tutor-helper/pkg/vectorstore"
)

type fakeEmbedder struct {
	vector []float32
	err    error
	texts  []string
}

func (e *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	e.texts = append(e.texts, text)
	return e.vector, e.err
}

type fakeSearcher struct {
	results []vectorstore.SearchResult
	err     error

	lastTopK   int
	lastSource string
}

func (s *fakeSearcher) Search(ctx context.Context, queryEmbedding []float32, topK int, sourceFilter string) ([]vectorstore.SearchResult, error) {
	s.lastTopK = topK
	s.lastSource = sourceFilter
	return s.results, s.err
}

func TestRetrieveMapsChunksToPassages(t *testing.T) {
	searcher := &fakeSearcher{results: []vectorstore.SearchResult{
		{Chunk: vectorstore.Chunk{Content: "first chunk"}, Score: 0.92},
		{Chunk: vectorstore.Chunk{Content: "second chunk"}, Score: 0.81},
	}}
	retriever := New(&fakeEmbedder{vector: []float32{0.1, 0.2}}, searcher)

	passages, err := retriever.Retrieve(context.Background(), "what is paging?")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}

	if len(passages) != 2 {
		t.Fatalf("got %d passages, want 2", len(passages))
	}
	if passages[0].Content != "first chunk" || passages[1].Content != "second chunk" {
		t.Errorf("passages = %v, want chunk contents in order", passages)
	}
	if searcher.lastTopK != 4 {
		t.Errorf("topK = %d, want default 4", searcher.lastTopK)
	}
	if searcher.lastSource != "" {
		t.Errorf("source filter = %q, want unset", searcher.lastSource)
	}
}

func TestRetrieveOptions(t *testing.T) {
	searcher := &fakeSearcher{}
	retriever := New(&fakeEmbedder{}, searcher, WithTopK(2), WithSource("os_notes.pdf"))

	if _, err := retriever.Retrieve(context.Background(), "q"); err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}

	if searcher.lastTopK != 2 {
		t.Errorf("topK = %d, want 2", searcher.lastTopK)
	}
	if searcher.lastSource != "os_notes.pdf" {
		t.Errorf("source filter = %q, want os_notes.pdf", searcher.lastSource)
	}
}

func TestRetrieveEmbedderError(t *testing.T) {
	embedErr := errors.New("embedding api down")
	retriever := New(&fakeEmbedder{err: embedErr}, &fakeSearcher{})

	if _, err := retriever.Retrieve(context.Background(), "q"); !errors.Is(err, embedErr) {
		t.Errorf("Retrieve() error = %v, want wrapped %v", err, embedErr)
	}
}

func TestRetrieveSearchError(t *testing.T) {
	searchErr := errors.New("table missing")
	retriever := New(&fakeEmbedder{}, &fakeSearcher{err: searchErr})

	if _, err := retriever.Retrieve(context.Background(), "q"); !errors.Is(err, searchErr) {
		t.Errorf("Retrieve() error = %v, want wrapped %v", err, searchErr)
	}
}
