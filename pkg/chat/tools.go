package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"

	"github.com/mikeboe/tutor-helper/pkg/vectorstore"
)

// Embedder produces query embeddings for semantic search.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// SyllabusIndex is the slice of the vector store the tutor tools need.
type SyllabusIndex interface {
	Search(ctx context.Context, queryEmbedding []float32, topK int, sourceFilter string) ([]vectorstore.SearchResult, error)
	ListSources(ctx context.Context) ([]string, error)
}

// SyllabusToolset exposes syllabus search to the tutor agent. The same
// methods back the MCP tools.
type SyllabusToolset struct {
	embedder Embedder
	index    SyllabusIndex
}

func NewSyllabusToolset(embedder Embedder, index SyllabusIndex) *SyllabusToolset {
	return &SyllabusToolset{
		embedder: embedder,
		index:    index,
	}
}

func (t *SyllabusToolset) Name() string {
	return "syllabus_tools"
}

func (t *SyllabusToolset) Tools(ctx agent.ReadonlyContext) ([]tool.Tool, error) {
	searchTool, err := functiontool.New[SearchSyllabusArgs, SearchSyllabusResp](
		functiontool.Config{
			Name:        "search_syllabus",
			Description: "Search the student's syllabus using semantic search.",
		},
		t.searchSyllabusTool,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create search_syllabus tool: %w", err)
	}

	listTool, err := functiontool.New[ListSourcesArgs, ListSourcesResp](
		functiontool.Config{
			Name:        "list_sources",
			Description: "List the syllabus documents available for search.",
		},
		t.listSourcesTool,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create list_sources tool: %w", err)
	}

	return []tool.Tool{searchTool, listTool}, nil
}

// --- Tool Implementations ---

type SearchSyllabusArgs struct {
	Query  string `json:"query" description:"The search query"`
	TopK   int    `json:"topK,omitempty" description:"Number of results to return (default 5)"`
	Source string `json:"source,omitempty" description:"Optional source document filter"`
}

type SearchSyllabusResp struct {
	Results string `json:"results"`
}

// Wrapper for ADK tool interface
func (t *SyllabusToolset) searchSyllabusTool(ctx tool.Context, args SearchSyllabusArgs) (SearchSyllabusResp, error) {
	return t.SearchSyllabus(ctx, args)
}

// SearchSyllabus runs a semantic search and formats the hits for model
// consumption.
func (t *SyllabusToolset) SearchSyllabus(ctx context.Context, args SearchSyllabusArgs) (SearchSyllabusResp, error) {
	if args.TopK == 0 {
		args.TopK = 5
	}

	slog.Info("Search syllabus", "query", args.Query, "topK", args.TopK, "source", args.Source)

	queryEmbedding, err := t.embedder.EmbedQuery(ctx, args.Query)
	if err != nil {
		return SearchSyllabusResp{}, fmt.Errorf("failed to generate query embedding: %w", err)
	}

	results, err := t.index.Search(ctx, queryEmbedding, args.TopK, args.Source)
	if err != nil {
		return SearchSyllabusResp{}, fmt.Errorf("failed to search: %w", err)
	}

	if len(results) == 0 {
		return SearchSyllabusResp{Results: "No matching syllabus content found."}, nil
	}

	var formatted []string
	for _, result := range results {
		source := "unknown"
		if s, ok := result.Chunk.Metadata["source"].(string); ok {
			source = s
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("[Source]: %s\n[Content]: %s", source, result.Chunk.Content))

		for k, v := range result.Chunk.Metadata {
			if k == "source" {
				continue
			}
			sb.WriteString(fmt.Sprintf("\n[%s]: %v", k, v))
		}

		formatted = append(formatted, sb.String())
	}

	return SearchSyllabusResp{Results: strings.Join(formatted, "\n\n")}, nil
}

type ListSourcesArgs struct{}

type ListSourcesResp struct {
	Sources string `json:"sources"`
}

// Wrapper for ADK tool interface
func (t *SyllabusToolset) listSourcesTool(ctx tool.Context, args ListSourcesArgs) (ListSourcesResp, error) {
	return t.ListSources(ctx, args)
}

// ListSources names every ingested syllabus document.
func (t *SyllabusToolset) ListSources(ctx context.Context, _ ListSourcesArgs) (ListSourcesResp, error) {
	sources, err := t.index.ListSources(ctx)
	if err != nil {
		return ListSourcesResp{}, fmt.Errorf("failed to list sources: %w", err)
	}

	if len(sources) == 0 {
		return ListSourcesResp{Sources: "No syllabus documents have been ingested yet."}, nil
	}

	return ListSourcesResp{Sources: strings.Join(sources, "\n")}, nil
}
