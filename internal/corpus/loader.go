// Package corpus loads document records from static collection files.
package corpus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sha1n/lexsearch/internal/domain"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Duplicate id policies.
const (
	// PolicyLastWriteWins replaces an earlier record with a later one that has
	// the same id. The replacement keeps the earlier record's position.
	PolicyLastWriteWins = "last_write_wins"

	// PolicyReject fails the load on the first duplicate id.
	PolicyReject = "reject"
)

// MaxParallelReads is the maximum number of source files read concurrently.
const MaxParallelReads = 4

// IsSupportedFile reports whether path has a corpus file extension.
func IsSupportedFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// Loader reads and merges corpus sources.
type Loader struct {
	sources []string
	policy  string
}

// NewLoader creates a loader for the given sources. Each source is a corpus
// file or a directory of corpus files.
func NewLoader(sources []string, policy string) *Loader {
	if policy == "" {
		policy = PolicyLastWriteWins
	}
	return &Loader{sources: sources, policy: policy}
}

// Sources returns the configured sources.
func (l *Loader) Sources() []string {
	return l.sources
}

// Load reads every source and merges the records in source order. Any
// unreadable or malformed source fails the whole load with a LoadError.
func (l *Loader) Load(ctx context.Context) (*domain.Corpus, error) {
	if l.policy != PolicyLastWriteWins && l.policy != PolicyReject {
		return nil, domain.LoadError("", fmt.Errorf("unknown duplicate policy: %s", l.policy))
	}

	files, err := l.expandSources()
	if err != nil {
		return nil, err
	}

	collections := make([][]domain.DocumentRecord, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxParallelReads)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return domain.LoadError(file, err)
			}
			records, err := ReadFile(file)
			if err != nil {
				return err
			}
			collections[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return l.merge(files, collections)
}

// expandSources resolves directories into their corpus files, sorted by name.
func (l *Loader) expandSources() ([]string, error) {
	if len(l.sources) == 0 {
		return nil, domain.LoadError("", errors.New("no corpus sources configured"))
	}

	var files []string
	for _, source := range l.sources {
		info, err := os.Stat(source)
		if err != nil {
			return nil, domain.LoadError(source, err)
		}

		if !info.IsDir() {
			if !IsSupportedFile(source) {
				return nil, domain.LoadError(source, errors.New("unsupported file type"))
			}
			files = append(files, source)
			continue
		}

		entries, err := os.ReadDir(source)
		if err != nil {
			return nil, domain.LoadError(source, err)
		}
		var found []string
		for _, e := range entries {
			if e.IsDir() || !IsSupportedFile(e.Name()) {
				continue
			}
			found = append(found, filepath.Join(source, e.Name()))
		}
		if len(found) == 0 {
			return nil, domain.LoadError(source, errors.New("directory contains no corpus files"))
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

// merge concatenates collections, applying the duplicate policy.
func (l *Loader) merge(files []string, collections [][]domain.DocumentRecord) (*domain.Corpus, error) {
	total := 0
	for _, c := range collections {
		total += len(c)
	}

	records := make([]domain.DocumentRecord, 0, total)
	positions := make(map[int]int, total)
	replaced := 0

	for i, collection := range collections {
		for _, r := range collection {
			pos, dup := positions[r.ID]
			if !dup {
				positions[r.ID] = len(records)
				records = append(records, r)
				continue
			}
			if l.policy == PolicyReject {
				return nil, domain.LoadError(files[i], fmt.Errorf("duplicate document id %d", r.ID))
			}
			records[pos] = r
			replaced++
		}
	}

	if replaced > 0 {
		slog.Warn("Duplicate document ids replaced", "policy", l.policy, "count", replaced)
	}
	slog.Info("Corpus loaded", "files", len(files), "records", len(records))

	return domain.NewCorpus(records), nil
}

// rawRecord detects missing required fields.
type rawRecord struct {
	ID      *int    `json:"id" yaml:"id"`
	Title   string  `json:"title" yaml:"title"`
	Content *string `json:"content" yaml:"content"`
}

// ReadFile parses a single corpus file into records.
func ReadFile(path string) ([]domain.DocumentRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.LoadError(path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, domain.LoadError(path, errors.New("source is empty"))
	}

	var raw []rawRecord
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &raw)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = errors.New("unsupported file type")
	}
	if err != nil {
		return nil, domain.LoadError(path, err)
	}

	records := make([]domain.DocumentRecord, 0, len(raw))
	for i, r := range raw {
		if r.ID == nil {
			return nil, domain.LoadError(path, fmt.Errorf("record %d: missing id", i))
		}
		if r.Content == nil {
			return nil, domain.LoadError(path, fmt.Errorf("record %d (id %d): missing content", i, *r.ID))
		}
		records = append(records, domain.DocumentRecord{
			ID:      *r.ID,
			Title:   r.Title,
			Content: *r.Content,
		})
	}
	return records, nil
}
