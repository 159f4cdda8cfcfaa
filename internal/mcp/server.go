package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sha1n/lexsearch/internal/domain"
)

// Searcher runs ranked queries against the active corpus.
type Searcher interface {
	SearchLimit(ctx context.Context, query string, limit int) ([]domain.QueryResult, error)
	Document(id int) (domain.DocumentRecord, error)
	Ready() bool
}

// Summarizer produces document summaries.
type Summarizer interface {
	Summarize(ctx context.Context, title string) (domain.SummaryResult, error)
}

// ServerConfig contains configuration for creating an MCP server
type ServerConfig struct {
	Name       string
	Version    string
	Searcher   Searcher
	Summarizer Summarizer
}

// CreateServer creates and configures the MCP server
func CreateServer(cfg ServerConfig) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	if cfg.Searcher != nil {
		RegisterSearchTool(s, cfg.Searcher)
		RegisterDocumentTool(s, cfg.Searcher)
	}
	if cfg.Summarizer != nil {
		RegisterSummarizeTool(s, cfg.Summarizer)
	}

	return s
}

// errorResult renders err as a tool error the model can act on.
func errorResult(err error) *mcp.CallToolResult {
	text := "Internal error. Please try again later."
	var de *domain.Error
	if errors.As(err, &de) {
		text = de.Message
		if de.Help != "" {
			text = fmt.Sprintf("%s. %s", de.Message, de.Help)
		}
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
		IsError: true,
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
