package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sha1n/lexsearch/internal/domain"
)

// ErrorBody is the JSON body of every failed request.
type ErrorBody struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Help    string `json:"help,omitempty"`
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindInvalidQuery, domain.KindInvalidRequest:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindNotReady:
		return http.StatusServiceUnavailable
	case domain.KindGeneration:
		if domain.CodeOf(err) == domain.CodeGenerationTimeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	body := ErrorBody{
		Status: status,
		Code:   domain.CodeOf(err),
	}

	var de *domain.Error
	if errors.As(err, &de) {
		body.Message = de.Message
		body.Help = de.Help
	} else {
		// Internal details stay in the log
		body.Message = "internal server error"
	}

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(r.Context(), level, "Request failed",
		"request_id", RequestIDFrom(r.Context()),
		"path", r.URL.Path,
		"status", status,
		"code", body.Code,
		"error", err,
	)

	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}
