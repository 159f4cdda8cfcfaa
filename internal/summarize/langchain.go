package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
)

// Default models per provider.
const (
	DefaultGoogleAIModel = "gemini-2.5-flash"
	DefaultOpenAIModel   = "gpt-4o-mini"
)

// ModelConfig selects and authenticates a hosted language model.
type ModelConfig struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// NewModel creates a langchaingo model for the configured provider.
func NewModel(ctx context.Context, cfg ModelConfig) (llms.Model, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing API key for provider %q", cfg.Provider)
	}

	switch cfg.Provider {
	case GeneratorOpenAI:
		model := cfg.Model
		if model == "" {
			model = DefaultOpenAIModel
		}
		opts := []openai.Option{
			openai.WithToken(strings.TrimPrefix(cfg.APIKey, "Bearer ")),
			openai.WithModel(model),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai client: %w", err)
		}
		return llm, nil

	case GeneratorGoogleAI:
		model := cfg.Model
		if model == "" {
			model = DefaultGoogleAIModel
		}
		llm, err := googleai.New(ctx,
			googleai.WithAPIKey(cfg.APIKey),
			googleai.WithDefaultModel(model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create googleai client: %w", err)
		}
		return llm, nil

	default:
		return nil, fmt.Errorf("unsupported model provider %q", cfg.Provider)
	}
}

// LangChainGenerator sends the instruction and document to a chat model.
type LangChainGenerator struct {
	model llms.Model
}

// NewLangChainGenerator wraps model.
func NewLangChainGenerator(model llms.Model) *LangChainGenerator {
	return &LangChainGenerator{model: model}
}

func (g *LangChainGenerator) Generate(ctx context.Context, instruction, content string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, instruction),
		llms.TextParts(llms.ChatMessageTypeHuman, content),
	}

	resp, err := g.model.GenerateContent(ctx, messages)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	return resp.Choices[0].Content, nil
}
