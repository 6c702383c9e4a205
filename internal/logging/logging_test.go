package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{" info ", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsValidLevel(t *testing.T) {
	for _, l := range []string{"debug", "INFO", "Warn", "error"} {
		if !IsValidLevel(l) {
			t.Errorf("expected %q to be valid", l)
		}
	}
	if IsValidLevel("trace") {
		t.Error("expected trace to be invalid")
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, LevelInfo, FormatJSON)

	logger.Debug("hidden")
	logger.Info("shown", "executed", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line at INFO, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("expected JSON output: %v", err)
	}
	if entry["msg"] != "shown" {
		t.Errorf("expected msg 'shown', got %v", entry["msg"])
	}
	if entry["executed"] != float64(3) {
		t.Errorf("expected executed=3, got %v", entry["executed"])
	}
}

func TestNew_TextDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, LevelDebug, "unknown")

	logger.Debug("queue drained", "workers", 2)

	out := buf.String()
	if !strings.Contains(out, "msg=\"queue drained\"") || !strings.Contains(out, "workers=2") {
		t.Errorf("unexpected text output %q", out)
	}
}
