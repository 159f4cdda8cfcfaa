package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestLog(t *testing.T) {
	// Just verify it doesn't panic
	Log(validSettings())
}

func TestLogWithLogger_StdioTransport(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	s := validSettings()
	s.Transport = TransportStdio
	LogWithLogger(s, logger)

	output := buf.String()
	if !strings.Contains(output, "transport") {
		t.Error("Expected 'transport' in log output")
	}
	// stdio transport should not log host/port
	if strings.Contains(output, "Config: host") {
		t.Error("Expected no 'host' in log output for stdio transport")
	}
}

func TestLogWithLogger_HTTPTransport(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	LogWithLogger(validSettings(), logger)

	output := buf.String()
	for _, want := range []string{"Config: host", "Config: port", "corpus.sources", "search.engine", "search.threshold"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in log output", want)
		}
	}
}

func TestLogWithLogger_MasksAPIKey(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	s := validSettings()
	s.Summarize.Provider = "googleai"
	s.Summarize.APIKey = "super-secret-key"
	LogWithLogger(s, logger)

	output := buf.String()
	if strings.Contains(output, "super-secret-key") {
		t.Error("Expected API key to be masked")
	}
	if !strings.Contains(output, "****") {
		t.Error("Expected masked API key in output")
	}
}

func TestLogWithLogger_OfflineProviderSkipsModel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	LogWithLogger(validSettings(), logger)

	if strings.Contains(buf.String(), "summarize.api_key") {
		t.Error("Expected no api_key line for the extractive provider")
	}
}

func TestSettingsLogValue(t *testing.T) {
	s := *validSettings()
	s.Summarize.APIKey = "secret"

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logger.Info("settings", "settings", SettingsLogValue(s))

	output := buf.String()
	if strings.Contains(output, "secret") {
		t.Error("Expected API key to be masked")
	}
	if !strings.Contains(output, `"engine":"scan"`) {
		t.Errorf("Expected engine in output, got %s", output)
	}
}

func TestSummarizeSettingsLogValue(t *testing.T) {
	v := SummarizeSettingsLogValue(SummarizeSettings{Provider: "openai"})
	attrs := v.Group()
	for _, a := range attrs {
		if a.Key == "api_key" && a.Value.String() != "(unset)" {
			t.Errorf("Expected unset marker, got %s", a.Value.String())
		}
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	s := validSettings()
	s.LogLevel = "warn"
	s.LogFormat = LogFormatJSON

	logger := NewLogger(&buf, s)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected one line at warn level, got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("Expected JSON output, got %q", lines[0])
	}
	if entry["msg"] != "shown" {
		t.Errorf("Unexpected entry %v", entry)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
