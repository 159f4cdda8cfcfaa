package config

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

const masked = "****"

// NewLogger creates the process logger from the log level and format settings.
func NewLogger(w io.Writer, s *Settings) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(s.LogLevel)}
	if s.LogFormat == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Log logs the resolved settings in a granular way, skipping irrelevant ones
func Log(s *Settings) {
	LogWithLogger(s, slog.Default())
}

// LogWithLogger logs the resolved settings using the provided logger
func LogWithLogger(s *Settings, logger *slog.Logger) {
	ctx := context.Background()
	logger.InfoContext(ctx, "Config: transport", "value", s.Transport)
	if s.Transport == TransportHTTP {
		logger.InfoContext(ctx, "Config: host", "value", s.Host)
		logger.InfoContext(ctx, "Config: port", "value", s.Port)
	}
	logger.InfoContext(ctx, "Config: log_level", "value", s.LogLevel)

	logger.InfoContext(ctx, "Config: corpus.sources", "value", s.Corpus.Sources)
	logger.InfoContext(ctx, "Config: corpus.duplicate_policy", "value", s.Corpus.DuplicatePolicy)
	logger.InfoContext(ctx, "Config: corpus.watch", "value", s.Corpus.Watch)

	logger.InfoContext(ctx, "Config: search.engine", "value", s.Search.Engine)
	logger.InfoContext(ctx, "Config: search.threshold", "value", s.Search.Threshold)
	logger.InfoContext(ctx, "Config: search.max_results", "value", s.Search.MaxResults)
	logger.InfoContext(ctx, "Config: search.fields", "value", s.Search.Fields)

	logger.InfoContext(ctx, "Config: summarize.provider", "value", s.Summarize.Provider)
	if s.Summarize.RequiresAPIKey() {
		logger.InfoContext(ctx, "Config: summarize.model", "value", s.Summarize.Model)
		logger.InfoContext(ctx, "Config: summarize.api_key", "value", maskSecret(s.Summarize.APIKey))
		if s.Summarize.BaseURL != "" {
			logger.InfoContext(ctx, "Config: summarize.base_url", "value", s.Summarize.BaseURL)
		}
	}
	logger.InfoContext(ctx, "Config: summarize.documents_dir", "value", s.Summarize.DocumentsDir)
	logger.InfoContext(ctx, "Config: summarize.timeout", "value", s.Summarize.Timeout)
}

// SummarizeSettingsLogValue returns a slog.Value for SummarizeSettings with masked data
func SummarizeSettingsLogValue(s SummarizeSettings) slog.Value {
	return slog.GroupValue(
		slog.String("provider", s.Provider),
		slog.String("model", s.Model),
		slog.String("api_key", maskSecret(s.APIKey)),
		slog.Duration("timeout", s.Timeout),
		slog.String("documents_dir", s.DocumentsDir),
	)
}

// SettingsLogValue returns a slog.Value for Settings with masked data
func SettingsLogValue(s Settings) slog.Value {
	return slog.GroupValue(
		slog.String("transport", s.Transport),
		slog.String("host", s.Host),
		slog.Int("port", s.Port),
		slog.Any("sources", s.Corpus.Sources),
		slog.String("engine", s.Search.Engine),
		slog.Float64("threshold", s.Search.Threshold),
		slog.Any("summarize", SummarizeSettingsLogValue(s.Summarize)),
	)
}

// maskSecret hides a secret while still showing whether it is set.
func maskSecret(secret string) string {
	if secret == "" {
		return "(unset)"
	}
	return masked
}
