package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/pflag"

	"github.com/sha1n/lexsearch/internal/config"
	"github.com/sha1n/lexsearch/internal/domain"
)

const testCorpus = `[
  {"id": 1, "title": "Contract Law", "content": "A breach of contract occurs when a party fails to perform."},
  {"id": 2, "title": "Contract Law", "content": "Damages compensate the injured party for the loss."},
  {"id": 3, "title": "Tort Law", "content": "Negligence requires a duty of care and a breach of that duty."}
]`

// noopValidate is a no-op validation function for tests
func noopValidate(*config.Settings) error {
	return nil
}

// testSettings returns valid settings backed by a temporary corpus file.
func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	dir := t.TempDir()
	corpusFile := filepath.Join(dir, "corpus.json")
	if err := os.WriteFile(corpusFile, []byte(testCorpus), 0o644); err != nil {
		t.Fatalf("Failed to write corpus: %v", err)
	}
	docs := filepath.Join(dir, "documents")
	if err := os.Mkdir(docs, 0o755); err != nil {
		t.Fatalf("Failed to create documents dir: %v", err)
	}

	return &config.Settings{
		Transport: config.TransportHTTP,
		Host:      "127.0.0.1",
		Port:      3001,
		LogLevel:  "error",
		LogFormat: config.LogFormatText,
		Corpus: config.CorpusSettings{
			Sources:         []string{corpusFile},
			DuplicatePolicy: "last_write_wins",
			WatchDebounce:   100 * time.Millisecond,
		},
		Search: config.SearchSettings{
			Engine:         "scan",
			Threshold:      0.4,
			MaxResults:     50,
			Fields:         []string{"content"},
			MaxQueryLength: 256,
			CandidateLimit: 1000,
		},
		Summarize: config.SummarizeSettings{
			Provider:     "echo",
			Timeout:      5 * time.Second,
			DocumentsDir: docs,
			MaxSentences: 3,
		},
	}
}

func stubServices(*testing.T) func(context.Context, *config.Settings, string) (*Services, func(), error) {
	return func(context.Context, *config.Settings, string) (*Services, func(), error) {
		server := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "1.0"}, nil)
		return &Services{MCP: server}, nil, nil
	}
}

func TestRunWithDeps_ErrorCases(t *testing.T) {
	tests := []struct {
		name           string
		params         RunParams
		wantErrContain string
	}{
		{
			name: "LoadSettings error",
			params: RunParams{
				LoadSettings: func(*pflag.FlagSet) (*config.Settings, error) {
					return nil, errors.New("settings error")
				},
				ValidSettings: noopValidate,
			},
			wantErrContain: "failed to load settings",
		},
		{
			name: "ValidSettings error",
			params: RunParams{
				LoadSettings: func(*pflag.FlagSet) (*config.Settings, error) {
					return &config.Settings{Transport: config.TransportHTTP}, nil
				},
				ValidSettings: func(*config.Settings) error {
					return errors.New("validation error")
				},
			},
			wantErrContain: "invalid configuration",
		},
		{
			name: "CreateServices error",
			params: RunParams{
				LoadSettings: func(*pflag.FlagSet) (*config.Settings, error) {
					return &config.Settings{Transport: config.TransportHTTP}, nil
				},
				ValidSettings: noopValidate,
				CreateServices: func(context.Context, *config.Settings, string) (*Services, func(), error) {
					return nil, nil, errors.New("create services error")
				},
			},
			wantErrContain: "create services error",
		},
		{
			name: "StartHTTPServer error",
			params: RunParams{
				LoadSettings: func(*pflag.FlagSet) (*config.Settings, error) {
					return &config.Settings{Transport: config.TransportHTTP}, nil
				},
				ValidSettings: noopValidate,
				CreateServices: func(context.Context, *config.Settings, string) (*Services, func(), error) {
					return nil, nil, nil
				},
				StartHTTPServer: func(context.Context, *Services, *config.Settings) error {
					return errors.New("http start error")
				},
			},
			wantErrContain: "http start error",
		},
		{
			name: "stdio without MCP server",
			params: RunParams{
				LoadSettings: func(*pflag.FlagSet) (*config.Settings, error) {
					return &config.Settings{Transport: config.TransportStdio}, nil
				},
				ValidSettings: noopValidate,
				CreateServices: func(context.Context, *config.Settings, string) (*Services, func(), error) {
					return &Services{}, nil, nil
				},
			},
			wantErrContain: "requires an MCP server",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RunWithDeps(context.Background(), tt.params, nil, "test")
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.wantErrContain)
			}
			if !strings.Contains(err.Error(), tt.wantErrContain) {
				t.Errorf("Expected error containing %q, got %q", tt.wantErrContain, err.Error())
			}
		})
	}
}

func TestRunWithDeps_Cleanup(t *testing.T) {
	cleanupCalled := false
	params := RunParams{
		LoadSettings: func(*pflag.FlagSet) (*config.Settings, error) {
			return &config.Settings{Transport: config.TransportHTTP}, nil
		},
		ValidSettings: noopValidate,
		CreateServices: func(context.Context, *config.Settings, string) (*Services, func(), error) {
			return nil, func() { cleanupCalled = true }, nil
		},
		StartHTTPServer: func(context.Context, *Services, *config.Settings) error {
			return errors.New("intentional error to trigger cleanup")
		},
	}

	_ = RunWithDeps(context.Background(), params, nil, "test")

	if !cleanupCalled {
		t.Error("Cleanup was not called")
	}
}

func TestRunWithDeps_PassesVersion(t *testing.T) {
	var gotVersion string
	params := RunParams{
		LoadSettings: func(*pflag.FlagSet) (*config.Settings, error) {
			return &config.Settings{Transport: config.TransportHTTP}, nil
		},
		ValidSettings: noopValidate,
		CreateServices: func(_ context.Context, _ *config.Settings, version string) (*Services, func(), error) {
			gotVersion = version
			return nil, nil, nil
		},
		StartHTTPServer: func(context.Context, *Services, *config.Settings) error {
			return nil
		},
	}

	if err := RunWithDeps(context.Background(), params, nil, "1.2.3"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if gotVersion != "1.2.3" {
		t.Errorf("Expected version '1.2.3', got %q", gotVersion)
	}
}

func TestDefaultRunParams(t *testing.T) {
	params := DefaultRunParams()

	if params.LoadSettings == nil {
		t.Error("LoadSettings is nil")
	}
	if params.ValidSettings == nil {
		t.Error("ValidSettings is nil")
	}
	if params.StartHTTPServer == nil {
		t.Error("StartHTTPServer is nil")
	}
	if params.CreateServices == nil {
		t.Error("CreateServices is nil")
	}
}

func TestRunWithDeps_StdioWithCustomTransport(t *testing.T) {
	transportUsed := false
	customTransport := &mockTransport{
		connectCalled: &transportUsed,
	}

	params := RunParams{
		LoadSettings: func(*pflag.FlagSet) (*config.Settings, error) {
			return &config.Settings{Transport: config.TransportStdio}, nil
		},
		ValidSettings:     noopValidate,
		CreateServices:    stubServices(t),
		CustomIOTransport: customTransport,
	}

	// Use a cancelled context to avoid hanging
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_ = RunWithDeps(ctx, params, nil, "test")

	if !transportUsed {
		t.Error("Custom transport Connect was not called")
	}
}

func TestRunWithDeps_StdioEndToEnd(t *testing.T) {
	settings := testSettings(t)
	settings.Transport = config.TransportStdio

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	params := RunParams{
		LoadSettings: func(*pflag.FlagSet) (*config.Settings, error) {
			return settings, nil
		},
		ValidSettings:     config.ValidateSettings,
		CreateServices:    CreateServices,
		CustomIOTransport: serverTransport,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- RunWithDeps(ctx, params, nil, "test")
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "1.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("Failed to connect client: %v", err)
	}

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "search_documents",
		Arguments: map[string]any{"query": "breach"},
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("Expected success, got error result")
	}
	text := res.Content[0].(*mcp.TextContent).Text
	if !strings.Contains(text, "Contract Law") {
		t.Errorf("Expected 'Contract Law' in results, got: %s", text)
	}

	_ = session.Close()
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("RunWithDeps did not return after cancellation")
	}
}

func TestCreateServices(t *testing.T) {
	settings := testSettings(t)

	services, cleanup, err := CreateServices(context.Background(), settings, "test")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer cleanup()

	if services.MCP == nil {
		t.Error("Expected MCP server to be created")
	}
	if services.Documents == nil {
		t.Error("Expected documents provider for configured directory")
	}
	if !services.Engine.Ready() {
		t.Fatal("Expected engine to be ready after startup load")
	}
	if got := services.Engine.Stats().Documents; got != 3 {
		t.Errorf("Expected 3 documents, got %d", got)
	}

	result, err := services.Summarizer.Summarize(context.Background(), "Tort Law")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if !strings.Contains(result.Text, "Negligence") {
		t.Errorf("Expected corpus content in echo summary, got %q", result.Text)
	}
}

func TestCreateServices_NoDocumentsDir(t *testing.T) {
	settings := testSettings(t)
	settings.Summarize.DocumentsDir = ""

	services, cleanup, err := CreateServices(context.Background(), settings, "test")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer cleanup()

	if services.Documents != nil {
		t.Error("Expected no documents provider")
	}
}

func TestCreateServices_LoadFailureIsFatal(t *testing.T) {
	settings := testSettings(t)
	settings.Corpus.Sources = []string{filepath.Join(t.TempDir(), "missing.json")}

	_, _, err := CreateServices(context.Background(), settings, "test")
	if err == nil {
		t.Fatal("Expected error for missing corpus")
	}
	if !strings.Contains(err.Error(), "failed to load corpus") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestCreateServices_UnknownEngine(t *testing.T) {
	settings := testSettings(t)
	settings.Search.Engine = "bogus"

	if _, _, err := CreateServices(context.Background(), settings, "test"); err == nil {
		t.Fatal("Expected error for unknown engine")
	}
}

func TestNewGenerator_MissingAPIKeyFailsSummaries(t *testing.T) {
	tests := map[string]string{
		"googleai": "GEMINI_API_KEY",
		"openai":   "OPENAI_API_KEY",
	}
	for provider, envVar := range tests {
		t.Run(provider, func(t *testing.T) {
			gen, err := newGenerator(context.Background(), &config.SummarizeSettings{
				Provider:     provider,
				MaxSentences: 2,
			})
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			_, err = gen.Generate(context.Background(), "", "First sentence here. Second one follows.")
			if domain.KindOf(err) != domain.KindGeneration {
				t.Fatalf("Expected generation error, got %v", err)
			}
			if !strings.Contains(err.Error(), envVar) {
				t.Errorf("Expected error to name %s, got %q", envVar, err.Error())
			}
		})
	}
}

func TestNewGenerator_ExtractiveOnlyWhenConfigured(t *testing.T) {
	gen, err := newGenerator(context.Background(), &config.SummarizeSettings{
		Provider:     "extractive",
		MaxSentences: 1,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	out, err := gen.Generate(context.Background(), "", "First sentence here. Second one follows.")
	if err != nil || out == "" {
		t.Errorf("Expected extractive output, got %q, %v", out, err)
	}
}

// mockTransport implements mcp.Transport for testing
type mockTransport struct {
	connectCalled *bool
}

func (m *mockTransport) Connect(ctx context.Context) (mcp.Connection, error) {
	if m.connectCalled != nil {
		*m.connectCalled = true
	}
	return nil, errors.New("mock transport - no real connection")
}
