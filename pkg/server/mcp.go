package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mikeboe/tutor-helper/pkg/chat"
)

// mcpServer exposes the tutor over the Model Context Protocol so external
// agents can query the ingested syllabus.
type mcpServer struct {
	server *mcp.Server
}

func newMCPServer(s *Service, tools *chat.SyllabusToolset) *mcpServer {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "tutor-helper",
		Version: "1.0.0",
		Title:   "AI Teaching Assistant",
	}, nil)

	addAskTool(server, s)
	addSearchTool(server, tools)
	addSourcesTool(server, tools)

	return &mcpServer{server: server}
}

func (m *mcpServer) httpHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return m.server
	}, nil)
}

func addAskTool(server *mcp.Server, s *Service) {
	type args struct {
		Question string `json:"question" jsonschema:"The question to answer from the syllabus"`
		Source   string `json:"source,omitempty" jsonschema:"Optional source document to restrict retrieval to"`
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_tutor",
		Description: "Answer a question from the ingested syllabus using iterative retrieval",
	}, func(ctx context.Context, req *mcp.CallToolRequest, a args) (*mcp.CallToolResult, any, error) {
		if strings.TrimSpace(a.Question) == "" {
			return nil, nil, errors.New("question is required")
		}

		result, err := s.Engine(a.Source, nil).Answer(ctx, a.Question, true)
		if err != nil {
			return nil, nil, err
		}
		return textResult(result.Answer), nil, nil
	})
}

func addSearchTool(server *mcp.Server, tools *chat.SyllabusToolset) {
	type args struct {
		Query  string `json:"query" jsonschema:"The search query"`
		TopK   int    `json:"topK,omitempty" jsonschema:"Number of results to return, defaults to 5"`
		Source string `json:"source,omitempty" jsonschema:"Optional source document filter"`
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_syllabus",
		Description: "Search the ingested syllabus using semantic search",
	}, func(ctx context.Context, req *mcp.CallToolRequest, a args) (*mcp.CallToolResult, any, error) {
		if strings.TrimSpace(a.Query) == "" {
			return nil, nil, errors.New("query is required")
		}

		resp, err := tools.SearchSyllabus(ctx, chat.SearchSyllabusArgs{
			Query:  a.Query,
			TopK:   a.TopK,
			Source: a.Source,
		})
		if err != nil {
			return nil, nil, err
		}
		return textResult(resp.Results), nil, nil
	})
}

func addSourcesTool(server *mcp.Server, tools *chat.SyllabusToolset) {
	type args struct{}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_sources",
		Description: "List the syllabus documents available for search",
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ args) (*mcp.CallToolResult, any, error) {
		resp, err := tools.ListSources(ctx, chat.ListSourcesArgs{})
		if err != nil {
			return nil, nil, err
		}
		return textResult(resp.Sources), nil, nil
	})
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
