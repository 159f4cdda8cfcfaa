package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SummarizeArgument defines summarize_document parameters.
type SummarizeArgument struct {
	Title string `json:"title" jsonschema_description:"Source document name (e.g., case19)"`
}

// SummarizeHandler handles the summarize_document MCP tool.
type SummarizeHandler struct {
	summarizer Summarizer
}

// NewSummarizeHandler creates a new summarize handler.
func NewSummarizeHandler(summarizer Summarizer) *SummarizeHandler {
	return &SummarizeHandler{summarizer: summarizer}
}

// Handle summarizes the named document.
func (h *SummarizeHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SummarizeArgument) (*mcp.CallToolResult, any, error) {
	result, err := h.summarizer.Summarize(ctx, args.Title)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return textResult(result.Text), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *SummarizeHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "summarize_document",
		Description: "Generate a summary of a named source document",
	}
}

// RegisterSummarizeTool registers the summarize tool with an MCP server.
func RegisterSummarizeTool(server *mcp.Server, summarizer Summarizer) {
	handler := NewSummarizeHandler(summarizer)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}
