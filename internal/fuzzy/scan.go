package fuzzy

import (
	"fmt"
	"sync/atomic"

	"github.com/sha1n/lexsearch/internal/domain"
)

// ScanMatcher scores every indexed record on each query. The entry set is
// immutable and replaced wholesale by Build.
type ScanMatcher struct {
	opts    Options
	entries atomic.Pointer[[]entry]
}

// NewScanMatcher creates an empty scan matcher.
func NewScanMatcher(opts Options) *ScanMatcher {
	return &ScanMatcher{opts: opts.withDefaults()}
}

// Build indexes corpus and swaps it in.
func (m *ScanMatcher) Build(corpus *domain.Corpus) error {
	if corpus == nil {
		return fmt.Errorf("corpus cannot be nil")
	}
	entries := newEntries(corpus, m.opts.Fields)
	m.entries.Store(&entries)
	return nil
}

// Query returns matches at or below the threshold, best first.
func (m *ScanMatcher) Query(text string, limit int) ([]domain.QueryResult, error) {
	entries := m.entries.Load()
	if entries == nil {
		return nil, domain.NotReadyError()
	}

	pattern, limit, err := preparePattern(text, limit)
	if err != nil {
		return nil, err
	}

	return rank(scoreAll(*entries, pattern, m.opts.Threshold), limit), nil
}

// Close drops the index; later queries fail as not ready.
func (m *ScanMatcher) Close() error {
	m.entries.Store(nil)
	return nil
}
