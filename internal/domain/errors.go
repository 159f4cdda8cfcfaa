package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an Error. Callers compare kinds with errors.Is against the
// sentinel values below.
type Kind int

const (
	KindInternal Kind = iota
	KindLoad
	KindNotReady
	KindInvalidQuery
	KindInvalidRequest
	KindNotFound
	KindGeneration
)

// Stable error codes rendered at the service boundaries.
const (
	CodeInternal          = "INTERNAL_ERROR"
	CodeLoad              = "LOAD_ERROR"
	CodeNotReady          = "NOT_READY"
	CodeInvalidQuery      = "INVALID_QUERY"
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeNotFound          = "NOT_FOUND"
	CodeGenerationFailed  = "GENERATION_FAILED"
	CodeGenerationTimeout = "GENERATION_TIMEOUT"
)

// Sentinels for errors.Is.
var (
	ErrLoad           = &Error{Kind: KindLoad, Code: CodeLoad, Message: "corpus load failed"}
	ErrNotReady       = &Error{Kind: KindNotReady, Code: CodeNotReady, Message: "index is not ready"}
	ErrInvalidQuery   = &Error{Kind: KindInvalidQuery, Code: CodeInvalidQuery, Message: "invalid query"}
	ErrInvalidRequest = &Error{Kind: KindInvalidRequest, Code: CodeInvalidRequest, Message: "invalid request"}
	ErrNotFound       = &Error{Kind: KindNotFound, Code: CodeNotFound, Message: "document not found"}
	ErrGeneration     = &Error{Kind: KindGeneration, Code: CodeGenerationFailed, Message: "summary generation failed"}
)

// Error is the structured error returned by the search and summarization core.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	// Help is an optional hint shown to end users.
	Help string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// LoadError reports an unreadable or malformed corpus source.
func LoadError(source string, err error) *Error {
	return &Error{
		Kind:    KindLoad,
		Code:    CodeLoad,
		Message: fmt.Sprintf("failed to load corpus source %q", source),
		Err:     err,
	}
}

// NotReadyError reports a query against an index that has not been built.
func NotReadyError() *Error {
	return &Error{
		Kind:    KindNotReady,
		Code:    CodeNotReady,
		Message: "the document index is not ready",
		Help:    "The corpus is still loading. Please try again shortly.",
	}
}

// InvalidQueryError reports a search query the caller must fix.
func InvalidQueryError(msg string) *Error {
	return &Error{
		Kind:    KindInvalidQuery,
		Code:    CodeInvalidQuery,
		Message: msg,
		Help:    "Enter a search term and try again.",
	}
}

// InvalidRequestError reports a summarization request the caller must fix.
func InvalidRequestError(msg string) *Error {
	return &Error{
		Kind:    KindInvalidRequest,
		Code:    CodeInvalidRequest,
		Message: msg,
		Help:    "Add a document name and try again.",
	}
}

// NotFoundError reports a document title or id with no backing content.
func NotFoundError(what string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    CodeNotFound,
		Message: fmt.Sprintf("document not found: %s", what),
		Help:    "Check the document name and try again.",
	}
}

// GenerationError reports a failed call to the text-generation capability.
func GenerationError(err error) *Error {
	return &Error{
		Kind:    KindGeneration,
		Code:    CodeGenerationFailed,
		Message: "failed to summarize",
		Help:    "The summarization service is unavailable. Please try again later.",
		Err:     err,
	}
}

// GenerationUnavailableError reports a generator that cannot run at all, such
// as a hosted provider configured without credentials. reason is shown to the
// caller.
func GenerationUnavailableError(reason string) *Error {
	return &Error{
		Kind:    KindGeneration,
		Code:    CodeGenerationFailed,
		Message: reason,
		Help:    "Configure the summarization provider and restart the server.",
	}
}

// GenerationTimeoutError reports a generation call that exceeded its deadline.
func GenerationTimeoutError(err error) *Error {
	return &Error{
		Kind:    KindGeneration,
		Code:    CodeGenerationTimeout,
		Message: "summary generation timed out",
		Help:    "The document may be too large to summarize right now. Please try again later.",
		Err:     err,
	}
}

// CodeOf returns the stable code of err, or CodeInternal for non-domain errors.
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// KindOf returns the Kind of err, or KindInternal for non-domain errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
