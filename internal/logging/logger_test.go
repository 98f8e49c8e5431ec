package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "json")

	logger.Debug("hidden")
	logger.Info("parse finished", "valid", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "parse finished" {
		t.Errorf("msg = %v, want %q", entry["msg"], "parse finished")
	}
	if entry["valid"] != float64(3) {
		t.Errorf("valid = %v, want 3", entry["valid"])
	}
}

func TestFromContext_RequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(New(&buf, "info", "text"))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	WithFields(ctx, "schema", "contacts").Info("hello")

	out := buf.String()
	if !strings.Contains(out, "request_id=req-42") {
		t.Errorf("log output missing request_id: %q", out)
	}
	if !strings.Contains(out, "schema=contacts") {
		t.Errorf("log output missing schema field: %q", out)
	}
}
