package summarize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sha1n/lexsearch/internal/domain"
	"github.com/sha1n/lexsearch/internal/pdftext"
)

// DocumentExtensions are tried in order when resolving a title to a file.
var DocumentExtensions = []string{".pdf", ".txt", ".md"}

// FileProvider reads source documents from a directory, one file per title.
type FileProvider struct {
	dir string
}

// NewFileProvider creates a provider rooted at dir.
func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{dir: dir}
}

// Dir returns the documents directory.
func (p *FileProvider) Dir() string {
	return p.dir
}

// Resolve returns the path of the file backing title.
func (p *FileProvider) Resolve(title string) (string, error) {
	if err := validateTitle(title); err != nil {
		return "", domain.InvalidRequestError(fmt.Sprintf("invalid document name: %s", err))
	}

	root, err := filepath.Abs(p.dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve documents directory: %w", err)
	}
	for _, ext := range DocumentExtensions {
		path := filepath.Join(root, title+ext)
		// Ensure the path stays within the documents directory
		if !strings.HasPrefix(path, root+string(filepath.Separator)) {
			return "", domain.InvalidRequestError("invalid document name: path traversal is not allowed")
		}
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return "", fmt.Errorf("failed to access %s: %w", path, err)
		}
		if info.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", domain.NotFoundError(fmt.Sprintf("%q", title))
}

// Content returns the text of the document named title.
func (p *FileProvider) Content(_ context.Context, title string) (string, error) {
	path, err := p.Resolve(title)
	if err != nil {
		return "", err
	}

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		text, err := pdftext.Text(path)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from %s: %w", filepath.Base(path), err)
		}
		return text, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	return string(data), nil
}

// validateTitle rejects titles that could escape the documents directory.
func validateTitle(title string) error {
	if strings.ContainsAny(title, `/\`) {
		return fmt.Errorf("path separators are not allowed")
	}
	if title == "." || title == ".." || strings.HasPrefix(title, "..") {
		return fmt.Errorf("path traversal is not allowed")
	}
	if strings.ContainsRune(title, 0) {
		return fmt.Errorf("invalid character")
	}
	return nil
}

// CorpusSource exposes the active corpus.
type CorpusSource interface {
	Corpus() *domain.Corpus
}

// CorpusProvider resolves titles against the loaded corpus. A title matches
// either the records carrying that title, joined in corpus order, or a record
// id.
type CorpusProvider struct {
	source CorpusSource
}

// NewCorpusProvider creates a provider over source.
func NewCorpusProvider(source CorpusSource) *CorpusProvider {
	return &CorpusProvider{source: source}
}

// Content returns the text of the document named title.
func (p *CorpusProvider) Content(_ context.Context, title string) (string, error) {
	corpus := p.source.Corpus()
	if corpus == nil {
		return "", domain.NotReadyError()
	}

	if records := corpus.FindByTitle(title); len(records) > 0 {
		parts := make([]string, len(records))
		for i, r := range records {
			parts[i] = r.Content
		}
		return strings.Join(parts, "\n\n"), nil
	}

	if id, err := strconv.Atoi(strings.TrimSpace(title)); err == nil {
		if rec, ok := corpus.Get(id); ok {
			return rec.Content, nil
		}
	}
	return "", domain.NotFoundError(fmt.Sprintf("%q", title))
}

// ChainProvider asks each provider in turn and returns the first hit.
type ChainProvider struct {
	providers []ContentProvider
}

// NewChainProvider creates a provider that tries providers in order.
func NewChainProvider(providers ...ContentProvider) *ChainProvider {
	return &ChainProvider{providers: providers}
}

// Content returns the first content found. Errors other than NotFound stop the
// chain.
func (p *ChainProvider) Content(ctx context.Context, title string) (string, error) {
	for _, provider := range p.providers {
		content, err := provider.Content(ctx, title)
		if err == nil {
			return content, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return "", err
		}
	}
	return "", domain.NotFoundError(fmt.Sprintf("%q", title))
}
