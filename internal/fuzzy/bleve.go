package fuzzy

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/sha1n/lexsearch/internal/domain"
)

// MaxBatchSize is the maximum number of documents per bleve batch.
const MaxBatchSize = 100

// TermAnalyzer splits on Unicode word boundaries and lower-cases. It keeps
// stop words so every query term can find the records containing it.
const TermAnalyzer = "lexsearch_terms"

// BleveMatcher retrieves candidates from an in-memory bleve index with fuzzy
// term queries, then scores them with the same distance as ScanMatcher.
// When no candidate is found, or the candidate set was truncated at
// CandidateLimit, every entry is scored instead.
type BleveMatcher struct {
	opts Options

	mu      sync.RWMutex
	index   bleve.Index
	all     []entry
	entries map[string]*entry
}

// NewBleveMatcher creates an empty bleve-backed matcher.
func NewBleveMatcher(opts Options) *BleveMatcher {
	return &BleveMatcher{opts: opts.withDefaults()}
}

// indexedDocument is the shape stored in bleve.
type indexedDocument struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// CreateIndexMapping creates the bleve mapping for document records.
func CreateIndexMapping() (mapping.IndexMapping, error) {
	indexMapping := bleve.NewIndexMapping()
	err := indexMapping.AddCustomAnalyzer(TermAnalyzer, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     unicode.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register analyzer: %w", err)
	}

	docMapping := bleve.NewDocumentMapping()

	contentField := bleve.NewTextFieldMapping()
	contentField.Analyzer = TermAnalyzer
	contentField.Store = false
	docMapping.AddFieldMappingsAt(domain.FieldContent, contentField)

	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = TermAnalyzer
	titleField.Store = false
	docMapping.AddFieldMappingsAt(domain.FieldTitle, titleField)

	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = TermAnalyzer

	return indexMapping, nil
}

// Build indexes corpus into a fresh in-memory index and swaps it in. The
// previous index is closed after the swap.
func (m *BleveMatcher) Build(corpus *domain.Corpus) error {
	if corpus == nil {
		return fmt.Errorf("corpus cannot be nil")
	}

	indexMapping, err := CreateIndexMapping()
	if err != nil {
		return err
	}
	index, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	entries := newEntries(corpus, m.opts.Fields)
	byKey := make(map[string]*entry, len(entries))

	batch := index.NewBatch()
	batchSize := 0
	for i := range entries {
		e := &entries[i]
		key := e.record.Key()
		byKey[key] = e

		doc := indexedDocument{Title: e.record.Title, Content: e.record.Content}
		if err := batch.Index(key, doc); err != nil {
			_ = index.Close()
			return fmt.Errorf("failed to index document %s: %w", key, err)
		}
		batchSize++

		if batchSize >= MaxBatchSize {
			if err := index.Batch(batch); err != nil {
				_ = index.Close()
				return fmt.Errorf("batch index failed: %w", err)
			}
			batch = index.NewBatch()
			batchSize = 0
		}
	}
	if batchSize > 0 {
		if err := index.Batch(batch); err != nil {
			_ = index.Close()
			return fmt.Errorf("final batch index failed: %w", err)
		}
	}

	m.mu.Lock()
	old := m.index
	m.index = index
	m.all = entries
	m.entries = byKey
	m.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			return fmt.Errorf("failed to close previous index: %w", err)
		}
	}
	return nil
}

// Query returns scored candidates at or below the threshold, best first.
func (m *BleveMatcher) Query(text string, limit int) ([]domain.QueryResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.index == nil {
		return nil, domain.NotReadyError()
	}

	pattern, limit, err := preparePattern(text, limit)
	if err != nil {
		return nil, err
	}

	q := m.buildQuery(text)
	if q == nil {
		return rank(scoreAll(m.all, pattern, m.opts.Threshold), limit), nil
	}

	req := bleve.NewSearchRequestOptions(q, m.opts.CandidateLimit, 0, false)
	res, err := m.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	// Term retrieval misses substring shifts, and truncation follows bleve's
	// relevance order rather than distance.
	if len(res.Hits) == 0 || res.Total > uint64(len(res.Hits)) {
		return rank(scoreAll(m.all, pattern, m.opts.Threshold), limit), nil
	}

	hits := make([]hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		e, ok := m.entries[h.ID]
		if !ok {
			continue
		}
		if s := e.score(pattern); s <= m.opts.Threshold {
			hits = append(hits, hit{entry: e, score: s})
		}
	}
	return rank(hits, limit), nil
}

// buildQuery ORs a fuzzy and a prefix query per term and configured field.
// It returns nil when the text has no indexable terms.
func (m *BleveMatcher) buildQuery(text string) query.Query {
	terms := Terms(text)
	if len(terms) == 0 {
		return nil
	}

	clauses := make([]query.Query, 0, len(terms)*len(m.opts.Fields)*2)
	for _, field := range m.opts.Fields {
		for _, term := range terms {
			fq := bleve.NewFuzzyQuery(term)
			fq.SetField(field)
			fq.SetFuzziness(fuzzinessFor(term))
			clauses = append(clauses, fq)

			if utf8.RuneCountInString(term) >= 3 {
				pq := bleve.NewPrefixQuery(term)
				pq.SetField(field)
				clauses = append(clauses, pq)
			}
		}
	}
	return bleve.NewDisjunctionQuery(clauses...)
}

// fuzzinessFor scales the allowed term edit distance with term length.
// bleve caps fuzziness at 2.
func fuzzinessFor(term string) int {
	switch n := utf8.RuneCountInString(term); {
	case n <= 2:
		return 0
	case n <= 5:
		return 1
	default:
		return 2
	}
}

// DocCount returns the number of indexed documents.
func (m *BleveMatcher) DocCount() (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.index == nil {
		return 0, domain.NotReadyError()
	}
	return m.index.DocCount()
}

// Close releases the index; later queries fail as not ready.
func (m *BleveMatcher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.index != nil {
		if err := m.index.Close(); err != nil {
			return fmt.Errorf("failed to close index: %w", err)
		}
		m.index = nil
		m.all = nil
		m.entries = nil
	}
	return nil
}
