package research

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const arxivEndpoint = "https://export.arxiv.org/api/query"

const abstractLimit = 500

type arxivFeed struct {
	XMLName xml.Name     `xml:"feed"`
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

// ArxivClient searches the arXiv Atom API.
type ArxivClient struct {
	httpClient *http.Client
	endpoint   string
}

func NewArxivClient() *ArxivClient {
	return &ArxivClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   arxivEndpoint,
	}
}

// Search queries arXiv across all fields, sorted by relevance.
func (c *ArxivClient) Search(ctx context.Context, query string, maxResults int) ([]Paper, error) {
	if maxResults <= 0 {
		maxResults = 5
	}

	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("sortBy", "relevance")
	params.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arxiv request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned status %d: %s", resp.StatusCode, string(body))
	}

	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal feed: %w", err)
	}

	papers := make([]Paper, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		title := strings.TrimSpace(entry.Title)
		if title == "" {
			title = "Unknown"
		}

		abstract := ""
		if summary := strings.TrimSpace(entry.Summary); summary != "" {
			abstract = truncateRunes(summary, abstractLimit) + "..."
		}

		authors := make([]string, 0, 3)
		for _, author := range entry.Authors {
			if len(authors) == 3 {
				break
			}
			authors = append(authors, author.Name)
		}

		published := entry.Published
		if len(published) > 10 {
			published = published[:10]
		}

		papers = append(papers, Paper{
			Title:     title,
			Abstract:  abstract,
			Authors:   authors,
			Published: published,
			URL:       strings.TrimSpace(entry.ID),
			Source:    SourceArxiv,
		})
	}

	return papers, nil
}
