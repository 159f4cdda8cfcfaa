// Package httpapi exposes search, summarization and document download over
// HTTP with JSON bodies.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/sha1n/lexsearch/internal/domain"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 1 << 20

// Searcher runs ranked queries.
type Searcher interface {
	SearchLimit(ctx context.Context, query string, limit int) ([]domain.QueryResult, error)
	Ready() bool
}

// Summarizer produces document summaries.
type Summarizer interface {
	Summarize(ctx context.Context, title string) (domain.SummaryResult, error)
}

// DocumentResolver maps a document title to the file backing it.
type DocumentResolver interface {
	Resolve(title string) (string, error)
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	SearchValue string `json:"searchValue"`
	Limit       int    `json:"limit,omitempty"`
}

// SummarizeRequest is the body of POST /summarize.
type SummarizeRequest struct {
	FileName string `json:"fileName"`
}

// Handler serves the HTTP API. Summarizer and Documents may be nil, in which
// case their routes answer 404.
type Handler struct {
	Searcher   Searcher
	Summarizer Summarizer
	Documents  DocumentResolver
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /ready", h.ready)
	mux.HandleFunc("POST /search", h.search)
	mux.HandleFunc("POST /summarize", h.summarize)
	mux.HandleFunc("GET /documents", h.document)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) ready(w http.ResponseWriter, r *http.Request) {
	if !h.Searcher.Ready() {
		writeError(w, r, domain.NotReadyError())
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, domain.InvalidQueryError(err.Error()))
		return
	}

	results, err := h.Searcher.SearchLimit(r.Context(), req.SearchValue, req.Limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) summarize(w http.ResponseWriter, r *http.Request) {
	if h.Summarizer == nil {
		writeError(w, r, domain.NotFoundError("summarization is not configured"))
		return
	}

	var req SummarizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, domain.InvalidRequestError(err.Error()))
		return
	}

	result, err := h.Summarizer.Summarize(r.Context(), req.FileName)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) document(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("documentTitle")
	if title == "" {
		writeError(w, r, domain.InvalidRequestError("missing documentTitle"))
		return
	}
	if h.Documents == nil {
		writeError(w, r, domain.NotFoundError(fmt.Sprintf("%q", title)))
		return
	}

	path, err := h.Documents.Resolve(title)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return errors.New("request body is empty")
		case errors.As(err, &maxErr):
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		default:
			return fmt.Errorf("malformed request body: %v", err)
		}
	}
	return nil
}
