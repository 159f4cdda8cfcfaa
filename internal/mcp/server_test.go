package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sha1n/lexsearch/internal/domain"
	"github.com/sha1n/lexsearch/internal/fuzzy"
	"github.com/sha1n/lexsearch/internal/search"
	"github.com/sha1n/lexsearch/internal/summarize"
)

type corpusLoader struct {
	corpus *domain.Corpus
}

func (l corpusLoader) Load(context.Context) (*domain.Corpus, error) { return l.corpus, nil }

func newEngine(t *testing.T, load bool) *search.Engine {
	t.Helper()
	engine := search.NewEngine(corpusLoader{domain.NewCorpus([]domain.DocumentRecord{
		{ID: 1, Title: "case19", Content: "Non-disclosure agreement between parties"},
		{ID: 2, Content: "Employment termination notice"},
	})}, fuzzy.NewScanMatcher(fuzzy.Options{}), search.Options{})
	if load {
		if err := engine.Reload(context.Background()); err != nil {
			t.Fatalf("Reload failed: %v", err)
		}
	}
	t.Cleanup(func() { _ = engine.Close() })
	return engine
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("Expected one content item, got %d", len(result.Content))
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("Expected TextContent, got %T", result.Content[0])
	}
	return text.Text
}

func TestCreateServer(t *testing.T) {
	server := CreateServer(ServerConfig{Name: "lexsearch", Version: "1.0.0"})
	if server == nil {
		t.Fatal("Expected server to be created")
	}
}

func TestCreateServer_WithTools(t *testing.T) {
	engine := newEngine(t, true)
	server := CreateServer(ServerConfig{
		Name:       "lexsearch",
		Version:    "1.0.0",
		Searcher:   engine,
		Summarizer: summarize.NewOrchestrator(summarize.NewCorpusProvider(engine), summarize.EchoGenerator{}, summarize.Options{}),
	})
	if server == nil {
		t.Fatal("Expected server to be created")
	}
}

func TestCreateServer_ListsTools(t *testing.T) {
	engine := newEngine(t, true)
	server := CreateServer(ServerConfig{
		Name:       "lexsearch",
		Version:    "1.0.0",
		Searcher:   engine,
		Summarizer: summarize.NewOrchestrator(summarize.NewCorpusProvider(engine), summarize.EchoGenerator{}, summarize.Options{}),
	})

	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("Server connect failed: %v", err)
	}
	defer func() { _ = serverSession.Close() }()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("Client connect failed: %v", err)
	}
	defer func() { _ = session.Close() }()

	tools, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools failed: %v", err)
	}
	names := make(map[string]bool)
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"search_documents", "get_document", "summarize_document"} {
		if !names[want] {
			t.Errorf("Expected tool %s to be registered, got %v", want, names)
		}
	}

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "search_documents",
		Arguments: map[string]any{"query": "NDA agrement"},
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	if result.IsError || !strings.Contains(resultText(t, result), "Document 1") {
		t.Errorf("Unexpected search result %+v", result)
	}
}

func TestSearchHandler(t *testing.T) {
	handler := NewSearchHandler(newEngine(t, true))

	result, _, err := handler.Handle(context.Background(), nil, SearchArgument{Query: "NDA agrement"})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("Expected success, got %s", resultText(t, result))
	}
	text := resultText(t, result)
	if !strings.Contains(text, "Found 1 results for 'NDA agrement'") {
		t.Errorf("Unexpected header in %q", text)
	}
	if !strings.Contains(text, "Document 1 (case19)") || !strings.Contains(text, "Non-disclosure agreement") {
		t.Errorf("Expected document 1 in %q", text)
	}
	if strings.Contains(text, "termination") {
		t.Errorf("Expected document 2 to be excluded from %q", text)
	}
}

func TestSearchHandler_NoResults(t *testing.T) {
	handler := NewSearchHandler(newEngine(t, true))

	result, _, _ := handler.Handle(context.Background(), nil, SearchArgument{Query: "xyz-unrelated-term"})
	if result.IsError {
		t.Error("Expected empty result not to be an error")
	}
	if text := resultText(t, result); !strings.Contains(text, "No results found") {
		t.Errorf("Unexpected text %q", text)
	}
}

func TestSearchHandler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		load   bool
		query  string
		expect string
	}{
		{"empty query", true, "   ", "query cannot be empty"},
		{"not ready", false, "notice", "not ready"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewSearchHandler(newEngine(t, tt.load))

			result, _, err := handler.Handle(context.Background(), nil, SearchArgument{Query: tt.query})
			if err != nil {
				t.Fatalf("Expected tool error, not protocol error: %v", err)
			}
			if !result.IsError {
				t.Error("Expected IsError")
			}
			if text := resultText(t, result); !strings.Contains(text, tt.expect) {
				t.Errorf("Expected %q in %q", tt.expect, text)
			}
		})
	}
}

func TestDocumentHandler(t *testing.T) {
	handler := NewDocumentHandler(newEngine(t, true))

	result, _, _ := handler.Handle(context.Background(), nil, DocumentArgument{ID: 1})
	if result.IsError {
		t.Fatalf("Expected success, got %s", resultText(t, result))
	}
	text := resultText(t, result)
	if !strings.Contains(text, "**Title**: case19") || !strings.Contains(text, "Non-disclosure agreement between parties") {
		t.Errorf("Unexpected text %q", text)
	}

	result, _, _ = handler.Handle(context.Background(), nil, DocumentArgument{ID: 42})
	if !result.IsError || !strings.Contains(resultText(t, result), "not found") {
		t.Errorf("Expected not found error, got %+v", result)
	}
}

type stubSummarizer struct {
	err error
}

func (s stubSummarizer) Summarize(_ context.Context, title string) (domain.SummaryResult, error) {
	if s.err != nil {
		return domain.SummaryResult{}, s.err
	}
	return domain.SummaryResult{Text: "summary of " + title}, nil
}

func TestSummarizeHandler(t *testing.T) {
	result, _, _ := NewSummarizeHandler(stubSummarizer{}).Handle(context.Background(), nil, SummarizeArgument{Title: "case19"})
	if result.IsError || resultText(t, result) != "summary of case19" {
		t.Errorf("Unexpected result %+v", result)
	}

	result, _, _ = NewSummarizeHandler(stubSummarizer{err: domain.GenerationError(errors.New("quota"))}).Handle(context.Background(), nil, SummarizeArgument{Title: "case19"})
	if !result.IsError {
		t.Error("Expected IsError")
	}
	text := resultText(t, result)
	if !strings.Contains(text, "failed to summarize") || strings.Contains(text, "quota") {
		t.Errorf("Expected user-facing message without cause, got %q", text)
	}
}

func TestErrorResult_Internal(t *testing.T) {
	result := errorResult(errors.New("disk path leaked"))
	if !result.IsError || strings.Contains(resultText(t, result), "leaked") {
		t.Errorf("Expected generic internal error, got %+v", result)
	}
}
