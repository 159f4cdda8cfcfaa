package domain

import (
	"strconv"
	"strings"
)

// DocumentRecord is a single legal-document excerpt loaded from a corpus source.
// Records are immutable once loaded.
type DocumentRecord struct {
	// ID is unique within a corpus and stable for the lifetime of the process.
	ID int `json:"id" yaml:"id"`

	// Title optionally names the source document the excerpt belongs to.
	// Example: "case19"
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Content is the excerpt text used for matching and returned in results.
	Content string `json:"content" yaml:"content"`
}

// Key returns the record ID in the string form used by index backends.
func (r DocumentRecord) Key() string {
	return strconv.Itoa(r.ID)
}

// Corpus is the ordered, in-memory collection of records available for search.
// Order is load order across sources.
type Corpus struct {
	Records []DocumentRecord

	byID map[int]int
}

// NewCorpus wraps records that are already known to have unique IDs.
func NewCorpus(records []DocumentRecord) *Corpus {
	c := &Corpus{
		Records: records,
		byID:    make(map[int]int, len(records)),
	}
	for i, r := range records {
		c.byID[r.ID] = i
	}
	return c
}

// Len returns the number of records.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Records)
}

// Get returns the record with the given ID.
func (c *Corpus) Get(id int) (DocumentRecord, bool) {
	if c == nil {
		return DocumentRecord{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return DocumentRecord{}, false
	}
	return c.Records[i], true
}

// Ordinal returns the insertion position of the record with the given ID.
func (c *Corpus) Ordinal(id int) (int, bool) {
	if c == nil {
		return 0, false
	}
	i, ok := c.byID[id]
	return i, ok
}

// FindByTitle returns the records whose title equals title, ignoring case,
// in corpus order.
func (c *Corpus) FindByTitle(title string) []DocumentRecord {
	if c == nil {
		return nil
	}
	title = strings.TrimSpace(title)
	var out []DocumentRecord
	for _, r := range c.Records {
		if r.Title != "" && strings.EqualFold(r.Title, title) {
			out = append(out, r)
		}
	}
	return out
}

// QueryResult is a single ranked hit. Score is a normalized distance in [0,1]
// where 0 is an exact match.
type QueryResult struct {
	DocumentID int     `json:"documentId"`
	Title      string  `json:"title,omitempty"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
}

// SummaryRequest asks for a summary of a named source document.
type SummaryRequest struct {
	DocumentTitle string `json:"documentTitle"`
}

// SummaryResult carries generated summary text, returned verbatim.
type SummaryResult struct {
	Text string `json:"text"`
}

// Field names shared by matchers, index mappings and configuration.
const (
	FieldID      = "id"
	FieldTitle   = "title"
	FieldContent = "content"
)

// FieldValue returns the text of the named field, or "" for unknown fields.
func (r DocumentRecord) FieldValue(field string) string {
	switch field {
	case FieldContent:
		return r.Content
	case FieldTitle:
		return r.Title
	default:
		return ""
	}
}

// IsSearchableField reports whether field can be configured for matching.
func IsSearchableField(field string) bool {
	return field == FieldContent || field == FieldTitle
}
