package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DocumentArgument defines get_document parameters.
type DocumentArgument struct {
	ID int `json:"id" jsonschema_description:"Document id as returned by search_documents"`
}

// DocumentHandler handles the get_document MCP tool.
type DocumentHandler struct {
	searcher Searcher
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(searcher Searcher) *DocumentHandler {
	return &DocumentHandler{searcher: searcher}
}

// Handle returns the full text of one record.
func (h *DocumentHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args DocumentArgument) (*mcp.CallToolResult, any, error) {
	rec, err := h.searcher.Document(args.ID)
	if err != nil {
		return errorResult(err), nil, nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**Document**: %d\n", rec.ID))
	if rec.Title != "" {
		sb.WriteString(fmt.Sprintf("**Title**: %s\n", rec.Title))
	}
	sb.WriteString(fmt.Sprintf("**Size**: %d bytes\n\n", len(rec.Content)))
	sb.WriteString(rec.Content)

	return textResult(sb.String()), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *DocumentHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_document",
		Description: "Read the full text of a document excerpt by id",
	}
}

// RegisterDocumentTool registers the document tool with an MCP server.
func RegisterDocumentTool(server *mcp.Server, searcher Searcher) {
	handler := NewDocumentHandler(searcher)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}
