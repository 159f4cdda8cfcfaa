package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/pflag"

	"github.com/sha1n/lexsearch/internal/config"
	"github.com/sha1n/lexsearch/internal/corpus"
	"github.com/sha1n/lexsearch/internal/fuzzy"
	mcputil "github.com/sha1n/lexsearch/internal/mcp"
	"github.com/sha1n/lexsearch/internal/search"
	"github.com/sha1n/lexsearch/internal/summarize"
)

// Services holds the long-lived components shared by every transport.
type Services struct {
	Engine     *search.Engine
	Summarizer *summarize.Orchestrator
	// Documents is nil when no documents directory is configured.
	Documents *summarize.FileProvider
	MCP       *mcp.Server
}

// RunParams contains dependencies for the run function
type RunParams struct {
	LoadSettings      func(*pflag.FlagSet) (*config.Settings, error)
	ValidSettings     func(*config.Settings) error
	StartHTTPServer   func(context.Context, *Services, *config.Settings) error
	CreateServices    func(context.Context, *config.Settings, string) (*Services, func(), error)
	CustomIOTransport mcp.Transport // Optional: for testing with custom IO
}

// DefaultRunParams returns production dependencies
func DefaultRunParams() RunParams {
	return RunParams{
		LoadSettings:    config.LoadSettingsWithFlags,
		ValidSettings:   config.ValidateSettings,
		StartHTTPServer: StartHTTPServer,
		CreateServices:  CreateServices,
	}
}

// RunWithDeps executes the server with the provided dependencies
func RunWithDeps(ctx context.Context, params RunParams, flags *pflag.FlagSet, version string) error {
	// Load settings
	settings, err := params.LoadSettings(flags)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	// Validate settings for conflicting configurations
	if err := params.ValidSettings(settings); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Configure logging - always use stderr to avoid buffering issues
	slog.SetDefault(config.NewLogger(os.Stderr, settings))

	slog.Info("Starting lexsearch", "version", version)
	config.Log(settings)

	services, cleanup, err := params.CreateServices(ctx, settings, version)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	if services != nil && services.Engine != nil {
		go reloadOnSignal(ctx, services.Engine)
		if settings.Corpus.Watch {
			watcher := corpus.NewWatcher(settings.Corpus.Sources, settings.Corpus.WatchDebounce, services.Engine.Reload)
			go func() {
				if err := watcher.Run(ctx); err != nil {
					slog.Error("Corpus watcher stopped", "error", err)
				}
			}()
		}
	}

	// Start server
	if settings.Transport == config.TransportStdio {
		if services == nil || services.MCP == nil {
			return errors.New("stdio transport requires an MCP server")
		}
		// Use custom transport if provided (for testing), otherwise use stdio
		transport := params.CustomIOTransport
		if transport == nil {
			transport = &mcp.StdioTransport{}
		}
		return services.MCP.Run(ctx, transport)
	}

	slog.Info("Starting HTTP server", "host", settings.Host, "port", settings.Port)
	return params.StartHTTPServer(ctx, services, settings)
}

// CreateServices builds the search engine, loads the corpus and wires the
// summarizer and MCP server. A corpus that fails to load is fatal.
func CreateServices(ctx context.Context, settings *config.Settings, version string) (*Services, func(), error) {
	matcher, err := fuzzy.New(settings.Search.Engine, fuzzy.Options{
		Threshold:      settings.Search.Threshold,
		Fields:         settings.Search.Fields,
		CandidateLimit: settings.Search.CandidateLimit,
	})
	if err != nil {
		return nil, nil, err
	}

	loader := corpus.NewLoader(settings.Corpus.Sources, settings.Corpus.DuplicatePolicy)
	engine := search.NewEngine(loader, matcher, search.Options{
		MaxResults:     settings.Search.MaxResults,
		MaxQueryLength: settings.Search.MaxQueryLength,
	})
	if err := engine.Reload(ctx); err != nil {
		_ = engine.Close()
		return nil, nil, fmt.Errorf("failed to load corpus: %w", err)
	}

	cleanup := func() {
		if err := engine.Close(); err != nil {
			slog.Error("Failed to close search engine", "error", err)
		}
	}

	generator, err := newGenerator(ctx, &settings.Summarize)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to create summary generator: %w", err)
	}

	services := &Services{Engine: engine}
	providers := []summarize.ContentProvider{}
	if settings.Summarize.DocumentsDir != "" {
		services.Documents = summarize.NewFileProvider(settings.Summarize.DocumentsDir)
		providers = append(providers, services.Documents)
	}
	providers = append(providers, summarize.NewCorpusProvider(engine))

	services.Summarizer = summarize.NewOrchestrator(
		summarize.NewChainProvider(providers...),
		generator,
		summarize.Options{
			Instruction: settings.Summarize.Instruction,
			Timeout:     settings.Summarize.Timeout,
		},
	)

	services.MCP = mcputil.CreateServer(mcputil.ServerConfig{
		Name:       "lexsearch",
		Version:    version,
		Searcher:   engine,
		Summarizer: services.Summarizer,
	})

	return services, cleanup, nil
}

// newGenerator creates the configured generator. A hosted provider without an
// API key gets a generator that fails every summary with the missing variable,
// so search stays available.
func newGenerator(ctx context.Context, s *config.SummarizeSettings) (summarize.Generator, error) {
	if s.RequiresAPIKey() && s.APIKey == "" {
		reason := fmt.Sprintf("%s is missing", config.APIKeyEnvVar(s.Provider))
		slog.Warn("Summaries are unavailable", "provider", s.Provider, "reason", reason)
		return summarize.UnavailableGenerator{Reason: reason}, nil
	}
	return summarize.NewGenerator(ctx, summarize.ModelConfig{
		Provider: s.Provider,
		Model:    s.Model,
		APIKey:   s.APIKey,
		BaseURL:  s.BaseURL,
	}, s.MaxSentences)
}

// reloadOnSignal rebuilds the index on SIGHUP until ctx is done.
func reloadOnSignal(ctx context.Context, engine *search.Engine) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGHUP)
	defer signal.Stop(sigs)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sigs:
			slog.Info("SIGHUP received, reloading corpus")
			if err := engine.Reload(ctx); err != nil {
				slog.Error("Corpus reload failed, keeping previous index", "error", err)
			}
		}
	}
}
