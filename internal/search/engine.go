// Package search validates queries and runs them against the active corpus
// snapshot.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/sha1n/lexsearch/internal/domain"
	"github.com/sha1n/lexsearch/internal/fuzzy"
)

// DefaultMaxQueryLength is the longest accepted query, in runes.
const DefaultMaxQueryLength = 256

// CorpusLoader produces a complete corpus.
type CorpusLoader interface {
	Load(ctx context.Context) (*domain.Corpus, error)
}

// Options configures an Engine.
type Options struct {
	// MaxResults is the result cap when the caller gives no limit.
	MaxResults int
	// MaxQueryLength rejects longer queries as invalid.
	MaxQueryLength int
}

// Stats describes the active snapshot.
type Stats struct {
	Ready     bool      `json:"ready"`
	Documents int       `json:"documents"`
	LoadedAt  time.Time `json:"loadedAt,omitempty"`
	Reloads   uint64    `json:"reloads"`
}

// snapshot is the immutable corpus view served to readers.
type snapshot struct {
	corpus   *domain.Corpus
	loadedAt time.Time
}

// Engine owns the process-wide corpus and index state. It is created once at
// startup and shared by reference with every request path.
type Engine struct {
	loader  CorpusLoader
	matcher fuzzy.Matcher
	opts    Options

	current atomic.Pointer[snapshot]
	reloads atomic.Uint64

	// reloadMu serializes rebuilds; readers never take it.
	reloadMu sync.Mutex
}

// NewEngine creates an engine that is not ready until the first Reload.
func NewEngine(loader CorpusLoader, matcher fuzzy.Matcher, opts Options) *Engine {
	if opts.MaxResults <= 0 {
		opts.MaxResults = fuzzy.DefaultLimit
	}
	if opts.MaxQueryLength <= 0 {
		opts.MaxQueryLength = DefaultMaxQueryLength
	}
	return &Engine{loader: loader, matcher: matcher, opts: opts}
}

// Reload loads a fresh corpus, rebuilds the index and swaps both in. When
// loading or building fails the previous snapshot keeps serving.
func (e *Engine) Reload(ctx context.Context) error {
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	start := time.Now()
	corpus, err := e.loader.Load(ctx)
	if err != nil {
		return err
	}

	if err := e.matcher.Build(corpus); err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}

	e.current.Store(&snapshot{corpus: corpus, loadedAt: time.Now()})
	n := e.reloads.Add(1)
	slog.Info("Index ready", "documents", corpus.Len(), "generation", n, "duration", time.Since(start))
	return nil
}

// Ready reports whether a snapshot has been built.
func (e *Engine) Ready() bool {
	return e.current.Load() != nil
}

// Stats returns a description of the active snapshot.
func (e *Engine) Stats() Stats {
	s := e.current.Load()
	if s == nil {
		return Stats{}
	}
	return Stats{
		Ready:     true,
		Documents: s.corpus.Len(),
		LoadedAt:  s.loadedAt,
		Reloads:   e.reloads.Load(),
	}
}

// Search runs query with the default result cap.
func (e *Engine) Search(ctx context.Context, query string) ([]domain.QueryResult, error) {
	return e.SearchLimit(ctx, query, 0)
}

// SearchLimit runs query and returns at most limit results, best first. An
// empty slice means nothing matched within the threshold.
func (e *Engine) SearchLimit(ctx context.Context, query string, limit int) ([]domain.QueryResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.InvalidQueryError("query cannot be empty")
	}
	if n := utf8.RuneCountInString(query); n > e.opts.MaxQueryLength {
		return nil, domain.InvalidQueryError(fmt.Sprintf("query is too long (%d characters, maximum %d)", n, e.opts.MaxQueryLength))
	}
	if limit < 0 {
		return nil, domain.InvalidQueryError("limit cannot be negative")
	}
	if limit == 0 || limit > e.opts.MaxResults {
		limit = e.opts.MaxResults
	}

	if !e.Ready() {
		return nil, domain.NotReadyError()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results, err := e.matcher.Query(query, limit)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []domain.QueryResult{}
	}
	slog.Debug("Search completed", "query", query, "results", len(results))
	return results, nil
}

// Document returns the record with the given id from the active snapshot.
func (e *Engine) Document(id int) (domain.DocumentRecord, error) {
	s := e.current.Load()
	if s == nil {
		return domain.DocumentRecord{}, domain.NotReadyError()
	}
	rec, ok := s.corpus.Get(id)
	if !ok {
		return domain.DocumentRecord{}, domain.NotFoundError(fmt.Sprintf("id %d", id))
	}
	return rec, nil
}

// DocumentByTitle returns the first record whose title matches, ignoring case.
func (e *Engine) DocumentByTitle(title string) (domain.DocumentRecord, error) {
	s := e.current.Load()
	if s == nil {
		return domain.DocumentRecord{}, domain.NotReadyError()
	}
	recs := s.corpus.FindByTitle(title)
	if len(recs) == 0 {
		return domain.DocumentRecord{}, domain.NotFoundError(fmt.Sprintf("document %q", title))
	}
	return recs[0], nil
}

// Corpus returns the active corpus, or nil before the first Reload.
func (e *Engine) Corpus() *domain.Corpus {
	s := e.current.Load()
	if s == nil {
		return nil
	}
	return s.corpus
}

// Close releases the index.
func (e *Engine) Close() error {
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()
	e.current.Store(nil)
	return e.matcher.Close()
}
