package research

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const scholarEndpoint = "https://api.semanticscholar.org/graph/v1/paper/search"

const scholarFields = "title,abstract,authors,year,citationCount,url"

type scholarResponse struct {
	Data []scholarPaper `json:"data"`
}

type scholarPaper struct {
	Title         string          `json:"title"`
	Abstract      string          `json:"abstract"`
	Authors       []scholarAuthor `json:"authors"`
	Year          int             `json:"year"`
	CitationCount int             `json:"citationCount"`
	URL           string          `json:"url"`
}

type scholarAuthor struct {
	Name string `json:"name"`
}

// ScholarClient searches the Semantic Scholar graph API, which adds
// citation counts on top of what arXiv provides.
type ScholarClient struct {
	httpClient *http.Client
	endpoint   string
}

func NewScholarClient() *ScholarClient {
	return &ScholarClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   scholarEndpoint,
	}
}

func (c *ScholarClient) Search(ctx context.Context, query string, maxResults int) ([]Paper, error) {
	if maxResults <= 0 {
		maxResults = 5
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(maxResults))
	params.Set("fields", scholarFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("semantic scholar request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("semantic scholar returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed scholarResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	papers := make([]Paper, 0, len(parsed.Data))
	for _, paper := range parsed.Data {
		title := paper.Title
		if title == "" {
			title = "Unknown"
		}

		authors := make([]string, 0, 3)
		for _, author := range paper.Authors {
			if len(authors) == 3 {
				break
			}
			authors = append(authors, author.Name)
		}

		papers = append(papers, Paper{
			Title:     title,
			Abstract:  truncateRunes(paper.Abstract, abstractLimit),
			Authors:   authors,
			Year:      paper.Year,
			Citations: paper.CitationCount,
			URL:       paper.URL,
			Source:    SourceSemanticScholar,
		})
	}

	return papers, nil
}
