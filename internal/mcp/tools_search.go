package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sha1n/lexsearch/internal/domain"
)

// SearchArgument defines search parameters.
type SearchArgument struct {
	Query string `json:"query" jsonschema_description:"Free-text query; typos and partial words are tolerated"`
	Limit int    `json:"limit,omitempty" jsonschema_description:"Maximum number of passages to return"`
}

// SearchHandler handles the search MCP tool.
type SearchHandler struct {
	searcher Searcher
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(searcher Searcher) *SearchHandler {
	return &SearchHandler{searcher: searcher}
}

// Handle executes the search and returns formatted results.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgument) (*mcp.CallToolResult, any, error) {
	results, err := h.searcher.SearchLimit(ctx, args.Query, args.Limit)
	if err != nil {
		slog.Debug("Search tool failed", "query", args.Query, "error", err)
		return errorResult(err), nil, nil
	}
	return formatResults(results, strings.TrimSpace(args.Query)), nil, nil
}

// formatResults formats ranked passages for MCP response.
func formatResults(results []domain.QueryResult, query string) *mcp.CallToolResult {
	if len(results) == 0 {
		return textResult(fmt.Sprintf("No results found for query: %s", query))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d results for '%s':\n\n", len(results), query))

	for i, r := range results {
		if r.Title != "" {
			sb.WriteString(fmt.Sprintf("### %d. Document %d (%s)\n", i+1, r.DocumentID, r.Title))
		} else {
			sb.WriteString(fmt.Sprintf("### %d. Document %d\n", i+1, r.DocumentID))
		}
		sb.WriteString(fmt.Sprintf("**Score**: %.4f\n\n", r.Score))
		sb.WriteString("```\n")
		sb.WriteString(r.Content)
		sb.WriteString("\n```\n\n")
	}

	return textResult(sb.String())
}

// GetToolDefinition returns the MCP tool definition.
func (h *SearchHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "search_documents",
		Description: "Fuzzy search across legal-document excerpts, best matches first",
	}
}

// RegisterSearchTool registers the search tool with an MCP server.
func RegisterSearchTool(server *mcp.Server, searcher Searcher) {
	handler := NewSearchHandler(searcher)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}
