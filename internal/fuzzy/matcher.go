// Package fuzzy implements approximate matching of free-text queries against
// an in-memory corpus.
package fuzzy

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/sha1n/lexsearch/internal/domain"
)

const (
	// DefaultThreshold is the worst normalized distance a document may score
	// and still be returned.
	DefaultThreshold = 0.4

	// DefaultLimit caps the number of results when the caller gives none.
	DefaultLimit = 50

	// DefaultCandidateLimit caps how many candidates an index backend hands
	// to the scorer.
	DefaultCandidateLimit = 1000
)

// Engine names accepted by New.
const (
	EngineScan  = "scan"
	EngineBleve = "bleve"
)

// Matcher answers which documents approximately match a query, and how well.
// Build performs a full rebuild and replaces the previous index atomically;
// Query never observes a partially built index.
type Matcher interface {
	Build(corpus *domain.Corpus) error
	Query(text string, limit int) ([]domain.QueryResult, error)
	Close() error
}

// Options configures a Matcher.
type Options struct {
	// Threshold is the inclusion cut-off on the 0 (identical) to 1 scale.
	Threshold float64
	// Fields lists the record fields matched against; the best score wins.
	Fields []string
	// CandidateLimit bounds backend candidate retrieval (bleve engine only).
	CandidateLimit int
}

func (o Options) withDefaults() Options {
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if len(o.Fields) == 0 {
		o.Fields = []string{domain.FieldContent}
	}
	if o.CandidateLimit <= 0 {
		o.CandidateLimit = DefaultCandidateLimit
	}
	return o
}

// New creates a matcher for the named engine.
func New(engine string, opts Options) (Matcher, error) {
	switch engine {
	case EngineScan, "":
		return NewScanMatcher(opts), nil
	case EngineBleve:
		return NewBleveMatcher(opts), nil
	default:
		return nil, fmt.Errorf("unknown search engine: %s", engine)
	}
}

// entry is the searchable form of one record.
type entry struct {
	record  domain.DocumentRecord
	ordinal int
	fields  [][]rune
}

func newEntries(corpus *domain.Corpus, fields []string) []entry {
	entries := make([]entry, len(corpus.Records))
	for i, r := range corpus.Records {
		e := entry{record: r, ordinal: i, fields: make([][]rune, 0, len(fields))}
		for _, f := range fields {
			e.fields = append(e.fields, Normalize(r.FieldValue(f)))
		}
		entries[i] = e
	}
	return entries
}

// score returns the best score across the entry's fields.
func (e *entry) score(pattern []rune) float64 {
	best := 1.0
	for _, f := range e.fields {
		if len(f) == 0 {
			continue
		}
		if s := Score(pattern, f); s < best {
			best = s
			if best == 0 {
				break
			}
		}
	}
	return best
}

type hit struct {
	entry *entry
	score float64
}

// scoreAll scores every entry and keeps those at or below threshold.
func scoreAll(entries []entry, pattern []rune, threshold float64) []hit {
	var hits []hit
	for i := range entries {
		e := &entries[i]
		if s := e.score(pattern); s <= threshold {
			hits = append(hits, hit{entry: e, score: s})
		}
	}
	return hits
}

// rank orders hits by ascending score, ties by corpus ordinal, and keeps at
// most limit of them.
func rank(hits []hit, limit int) []domain.QueryResult {
	slices.SortFunc(hits, func(a, b hit) int {
		if c := cmp.Compare(a.score, b.score); c != 0 {
			return c
		}
		return cmp.Compare(a.entry.ordinal, b.entry.ordinal)
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}

	results := make([]domain.QueryResult, len(hits))
	for i, h := range hits {
		results[i] = domain.QueryResult{
			DocumentID: h.entry.record.ID,
			Title:      h.entry.record.Title,
			Content:    h.entry.record.Content,
			Score:      h.score,
		}
	}
	return results
}

// preparePattern normalizes the query text and applies the default limit.
func preparePattern(text string, limit int) ([]rune, int, error) {
	pattern := Normalize(text)
	if len(pattern) == 0 {
		return nil, 0, domain.InvalidQueryError("query cannot be empty")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return pattern, limit, nil
}
