package research

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const arxivFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/1706.03762v7</id>
    <title>Attention Is All You Need</title>
    <summary>  The dominant sequence transduction models are based on complex recurrent or
convolutional neural networks.  </summary>
    <published>2017-06-12T17:57:34Z</published>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
    <author><name>Niki Parmar</name></author>
    <author><name>Jakob Uszkoreit</name></author>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/1810.04805v2</id>
    <title>BERT: Pre-training of Deep Bidirectional Transformers</title>
    <summary>We introduce a new language representation model called BERT.</summary>
    <published>2018-10-11T00:50:01Z</published>
    <author><name>Jacob Devlin</name></author>
  </entry>
</feed>`

func TestArxivSearch(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(arxivFixture))
	}))
	defer server.Close()

	client := NewArxivClient()
	client.endpoint = server.URL

	papers, err := client.Search(context.Background(), "transformers", 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	for _, part := range []string{"search_query=all%3Atransformers", "max_results=3", "sortBy=relevance", "sortOrder=descending", "start=0"} {
		if !strings.Contains(gotQuery, part) {
			t.Errorf("Expected query to contain %q, got %q", part, gotQuery)
		}
	}

	if len(papers) != 2 {
		t.Fatalf("Expected 2 papers, got %d", len(papers))
	}

	first := papers[0]
	if first.Title != "Attention Is All You Need" {
		t.Errorf("Unexpected title %q", first.Title)
	}
	if !strings.HasPrefix(first.Abstract, "The dominant sequence") || !strings.HasSuffix(first.Abstract, "...") {
		t.Errorf("Expected trimmed abstract with ellipsis, got %q", first.Abstract)
	}
	if len(first.Authors) != 3 || first.Authors[2] != "Niki Parmar" {
		t.Errorf("Expected first 3 authors, got %v", first.Authors)
	}
	if first.Published != "2017-06-12" {
		t.Errorf("Expected published 2017-06-12, got %q", first.Published)
	}
	if first.URL != "http://arxiv.org/abs/1706.03762v7" {
		t.Errorf("Unexpected URL %q", first.URL)
	}
	if first.Source != SourceArxiv {
		t.Errorf("Unexpected source %q", first.Source)
	}

	if len(papers[1].Authors) != 1 {
		t.Errorf("Expected 1 author on second paper, got %v", papers[1].Authors)
	}
}

func TestArxivSearchTruncatesLongAbstract(t *testing.T) {
	long := strings.Repeat("x", 800)
	fixture := `<feed xmlns="http://www.w3.org/2005/Atom"><entry><id>http://arxiv.org/abs/1</id><title>T</title><summary>` + long + `</summary><published>2020-01-01T00:00:00Z</published></entry></feed>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(fixture))
	}))
	defer server.Close()

	client := NewArxivClient()
	client.endpoint = server.URL

	papers, err := client.Search(context.Background(), "q", 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(papers) != 1 {
		t.Fatalf("Expected 1 paper, got %d", len(papers))
	}
	if len([]rune(papers[0].Abstract)) != abstractLimit+3 {
		t.Errorf("Expected abstract of %d runes, got %d", abstractLimit+3, len([]rune(papers[0].Abstract)))
	}
}

func TestArxivSearchErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewArxivClient()
	client.endpoint = server.URL

	if _, err := client.Search(context.Background(), "q", 1); err == nil {
		t.Fatal("Expected error for non-200 status")
	} else if !strings.Contains(err.Error(), "503") {
		t.Errorf("Expected status code in error, got %v", err)
	}
}

func TestArxivSearchDefaultsMaxResults(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`<feed xmlns="http://www.w3.org/2005/Atom"></feed>`))
	}))
	defer server.Close()

	client := NewArxivClient()
	client.endpoint = server.URL

	papers, err := client.Search(context.Background(), "q", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if !strings.Contains(gotQuery, "max_results=5") {
		t.Errorf("Expected default max_results=5, got %q", gotQuery)
	}
	if len(papers) != 0 {
		t.Errorf("Expected no papers from empty feed, got %d", len(papers))
	}
}
