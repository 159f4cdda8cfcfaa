package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sha1n/lexsearch/internal/pdftext"
)

func TestExecute_Version(t *testing.T) {
	err := Execute("1.0.0", "abc123", "lexsearch", []string{"--version"})
	if err != nil {
		t.Errorf("Expected no error for --version, got: %v", err)
	}
}

func TestExecute_Help(t *testing.T) {
	err := Execute("1.0.0", "abc123", "lexsearch", []string{"--help"})
	if err != nil {
		t.Errorf("Expected no error for --help, got: %v", err)
	}
}

func TestExecute_InvalidFlag(t *testing.T) {
	err := Execute("1.0.0", "abc123", "lexsearch", []string{"--invalid-flag"})
	if err == nil {
		t.Error("Expected error for invalid flag")
	}
}

func TestExecute_InvalidTransport(t *testing.T) {
	err := Execute("1.0.0", "abc123", "lexsearch", []string{"--transport", "invalid"})
	if err == nil {
		t.Fatal("Expected error for invalid transport")
	}
	if !strings.Contains(err.Error(), "transport") {
		t.Errorf("Expected error about transport, got: %v", err)
	}
}

func TestExecute_MissingCorpus(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.json")
	err := Execute("1.0.0", "abc123", "lexsearch", []string{"--corpus", missing, "--llm-provider", "extractive"})
	if err == nil {
		t.Fatal("Expected error for missing corpus")
	}
	if !strings.Contains(err.Error(), "failed to load corpus") {
		t.Errorf("Expected corpus load error, got: %v", err)
	}
}

func TestExecute_Convert(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "case3.pdf")
	if err := os.WriteFile(input, pdftext.BuildPDF("Custody arrangement"), 0644); err != nil {
		t.Fatalf("Failed to write pdf: %v", err)
	}
	output := filepath.Join(dir, "case3.json")

	err := Execute("1.0.0", "abc123", "lexsearch", []string{"convert", input, "-o", output, "--id-offset", "300"})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if !strings.Contains(string(data), `"id": 301`) {
		t.Errorf("Expected offset id in output, got %s", data)
	}
}

func TestExecute_ConvertRequiresInput(t *testing.T) {
	err := Execute("1.0.0", "abc123", "lexsearch", []string{"convert"})
	if err == nil {
		t.Error("Expected error when no input is given")
	}
}

func TestRunMain_Success(t *testing.T) {
	exitCode := -1
	mockExit := func(code int) {
		exitCode = code
	}

	// --help should succeed
	runMain([]string{"lexsearch", "--help"}, mockExit)

	if exitCode != -1 {
		t.Errorf("Expected no exit call for --help, got exit code: %d", exitCode)
	}
}

func TestRunMain_Failure(t *testing.T) {
	exitCode := -1
	mockExit := func(code int) {
		exitCode = code
	}

	runMain([]string{"lexsearch", "--invalid"}, mockExit)

	if exitCode != 1 {
		t.Errorf("Expected exit code 1 for invalid flag, got: %d", exitCode)
	}
}
