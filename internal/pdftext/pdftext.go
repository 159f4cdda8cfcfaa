// Package pdftext extracts plain text from PDF documents page by page.
package pdftext

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/sha1n/lexsearch/internal/domain"
)

// Pages returns the plain text of every page in the PDF at path, in page order.
// Pages without a text layer yield an empty string.
func Pages(path string) (pages []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return Read(f, stat.Size())
}

// Read extracts page text from a PDF of the given size.
func Read(r io.ReaderAt, size int64) (pages []string, err error) {
	// The pdf reader panics on some malformed cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			pages, err = nil, fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf: %w", err)
	}

	n := reader.NumPage()
	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract page %d: %w", i, err)
		}
		pages = append(pages, collapseSpace(text))
	}
	return pages, nil
}

// Text returns the whole document as one string, pages separated by a blank line.
func Text(path string) (string, error) {
	pages, err := Pages(path)
	if err != nil {
		return "", err
	}
	return strings.Join(pages, "\n\n"), nil
}

// ToRecords turns pages into corpus records, one per page. Page n gets id
// idOffset+n so several converted documents can share a corpus.
func ToRecords(title string, pages []string, idOffset int) []domain.DocumentRecord {
	records := make([]domain.DocumentRecord, 0, len(pages))
	for i, content := range pages {
		records = append(records, domain.DocumentRecord{
			ID:      idOffset + i + 1,
			Title:   title,
			Content: content,
		})
	}
	return records
}

// WriteJSON writes records as an indented JSON collection readable by the
// corpus loader.
func WriteJSON(w io.Writer, records []domain.DocumentRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	return nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
