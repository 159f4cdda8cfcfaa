// Package summarize produces summaries of named source documents. It resolves
// a document title to text through a ContentProvider and hands the text to a
// Generator.
package summarize

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/sha1n/lexsearch/internal/domain"
)

const (
	// DefaultInstruction is sent with every document unless configured otherwise.
	DefaultInstruction = "Produce a concise summary of this document."
	// DefaultTimeout bounds a single generation call.
	DefaultTimeout = 60 * time.Second
)

// Generator turns an instruction and document text into generated text.
type Generator interface {
	Generate(ctx context.Context, instruction, content string) (string, error)
}

// ContentProvider resolves a document title to its text. A title with no
// backing content yields a domain NotFound error.
type ContentProvider interface {
	Content(ctx context.Context, title string) (string, error)
}

// Options configures an Orchestrator.
type Options struct {
	Instruction string
	Timeout     time.Duration
}

// Orchestrator composes a content provider with a generator.
type Orchestrator struct {
	provider  ContentProvider
	generator Generator
	opts      Options
}

// NewOrchestrator creates an orchestrator. Zero options take the defaults.
func NewOrchestrator(provider ContentProvider, generator Generator, opts Options) *Orchestrator {
	if strings.TrimSpace(opts.Instruction) == "" {
		opts.Instruction = DefaultInstruction
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Orchestrator{provider: provider, generator: generator, opts: opts}
}

// Summarize returns the generated summary of the document named title. The
// generated text is returned verbatim. Failed generations are not retried.
func (o *Orchestrator) Summarize(ctx context.Context, title string) (domain.SummaryResult, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.SummaryResult{}, domain.InvalidRequestError("missing file name")
	}

	content, err := o.provider.Content(ctx, title)
	if err != nil {
		return domain.SummaryResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, o.opts.Timeout)
	defer cancel()

	start := time.Now()
	text, err := o.generator.Generate(ctx, o.opts.Instruction, content)
	if err != nil {
		var derr *domain.Error
		switch {
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
			slog.Warn("Summary generation timed out", "document", title, "timeout", o.opts.Timeout)
			return domain.SummaryResult{}, domain.GenerationTimeoutError(err)
		case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
			slog.Debug("Summary generation cancelled by caller", "document", title)
			return domain.SummaryResult{}, domain.GenerationError(err)
		case errors.As(err, &derr) && derr.Kind == domain.KindGeneration:
			slog.Warn("Summary generation unavailable", "document", title, "reason", derr.Message)
			return domain.SummaryResult{}, derr
		}
		slog.Error("Summary generation failed", "document", title, "error", err)
		return domain.SummaryResult{}, domain.GenerationError(err)
	}

	slog.Info("Summary generated", "document", title, "chars", len(text), "duration", time.Since(start))
	return domain.SummaryResult{Text: text}, nil
}
