package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sha1n/lexsearch/internal/pdftext"
)

// ConvertParams describes one PDF to corpus conversion.
type ConvertParams struct {
	Input    string
	Output   string // empty writes to Stdout
	IDOffset int
	Title    string // defaults to the input file name without extension
	Stdout   io.Writer
}

// RunConvert extracts the pages of a PDF into a JSON corpus collection with one
// record per page.
func RunConvert(p ConvertParams) error {
	pages, err := pdftext.Pages(p.Input)
	if err != nil {
		return err
	}

	title := p.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(p.Input), filepath.Ext(p.Input))
	}
	records := pdftext.ToRecords(title, pages, p.IDOffset)

	if p.Output == "" {
		w := p.Stdout
		if w == nil {
			w = os.Stdout
		}
		return pdftext.WriteJSON(w, records)
	}

	f, err := os.Create(p.Output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", p.Output, err)
	}
	if err := pdftext.WriteJSON(f, records); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", p.Output, err)
	}

	slog.Info("Converted PDF", "input", p.Input, "output", p.Output, "pages", len(records))
	return nil
}
