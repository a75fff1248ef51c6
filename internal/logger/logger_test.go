package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInit_LevelFiltersOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Config{Level: "warn", Output: &buf}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer Discard()

	Info("hidden message")
	Warn("visible message", "panel", "p1")

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Errorf("info message logged at warn level: %q", out)
	}
	if !strings.Contains(out, "visible message") || !strings.Contains(out, "panel=p1") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestInit_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "dashgen.log")
	if err := Init(Config{Level: "debug", File: path}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Debug("written to file")
	Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file content = %q", data)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"debug":   "DEBUG",
		"WARNING": "WARN",
		"error":   "ERROR",
		"":        "INFO",
		"bogus":   "INFO",
	}
	for in, want := range tests {
		if got := parseLevel(in).String(); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
