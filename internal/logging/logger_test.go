package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{"info", "info", slog.LevelInfo},
		{"debug", "debug", slog.LevelDebug},
		{"trace", "trace", LevelTrace},
		{"uppercase DEBUG", "DEBUG", slog.LevelDebug},
		{"mixed case Trace", "Trace", LevelTrace},
		{"unknown defaults to info", "unknown", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name       string
		level      string
		logAtDebug bool
	}{
		{"info filters debug", "info", false},
		{"debug passes debug", "debug", true},
		{"trace passes debug", "trace", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, &buf)

			logger.Debug("debug message")
			hasDebug := strings.Contains(buf.String(), "debug message")
			if hasDebug != tt.logAtDebug {
				t.Errorf("debug message visible = %v, want %v (buf: %q)", hasDebug, tt.logAtDebug, buf.String())
			}

			buf.Reset()
			logger.Info("info message")
			if !strings.Contains(buf.String(), "info message") {
				t.Errorf("info message missing (buf: %q)", buf.String())
			}
		})
	}
}

func TestNewLogger_TraceLabel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("trace", &buf)

	logger.Log(context.Background(), LevelTrace, "walk path")
	if !strings.Contains(buf.String(), "level=TRACE") {
		t.Errorf("expected TRACE label, got %q", buf.String())
	}
}

func TestNewEventLogger_InfoLevel(t *testing.T) {
	dir := t.TempDir()
	el := NewEventLogger(dir, "info")

	if el != nil {
		t.Error("expected nil EventLogger at info level")
	}

	// Nil logger should still be safe to use
	el.Log(map[string]any{"event": "test"})
	if el.Trace() {
		t.Error("nil EventLogger should not trace")
	}

	if _, err := os.Stat(filepath.Join(dir, EventsFile)); err == nil {
		t.Error("events.jsonl should not exist at info level")
	}
}

func TestNewEventLogger_DebugLevel(t *testing.T) {
	dir := t.TempDir()
	el := NewEventLogger(dir, "debug")
	defer el.Close()

	if el.Trace() {
		t.Error("debug level should not record full paths")
	}

	el.Log(map[string]any{"event": "trial", "end": 64})

	data, err := os.ReadFile(filepath.Join(dir, EventsFile))
	if err != nil {
		t.Fatalf("failed to read events.jsonl: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("failed to parse JSONL entry: %v", err)
	}
	if entry["event"] != "trial" {
		t.Errorf("event = %v, want trial", entry["event"])
	}
	if entry["end"] != float64(64) {
		t.Errorf("end = %v, want 64", entry["end"])
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected 'time' field in event entry")
	}
}

func TestNewEventLogger_TraceLevel(t *testing.T) {
	el := NewEventLogger(t.TempDir(), "trace")
	defer el.Close()

	if !el.Trace() {
		t.Error("trace level should record full paths")
	}
}

func TestEventLogger_MultipleWrites(t *testing.T) {
	dir := t.TempDir()
	el := NewEventLogger(dir, "debug")
	defer el.Close()

	el.Log(map[string]any{"event": "first"})
	el.Log(map[string]any{"event": "second"})

	data, err := os.ReadFile(filepath.Join(dir, EventsFile))
	if err != nil {
		t.Fatalf("failed to read events.jsonl: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), string(data))
	}
}

func TestEventLogger_DoesNotMutateCallerMap(t *testing.T) {
	el := NewEventLogger(t.TempDir(), "debug")
	defer el.Close()

	event := map[string]any{"event": "test"}
	el.Log(event)

	if _, hasTime := event["time"]; hasTime {
		t.Error("Log() should not mutate caller's map, but 'time' was injected")
	}
}

func TestEventLogger_LogAfterClose(t *testing.T) {
	el := NewEventLogger(t.TempDir(), "debug")

	el.Log(map[string]any{"event": "before_close"})
	el.Close()
	el.Close()

	// Should be a no-op, not panic
	el.Log(map[string]any{"event": "after_close"})
}

func TestEventLogger_FilePermissions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "dir")
	el := NewEventLogger(dir, "debug")
	if el == nil {
		t.Fatal("expected non-nil EventLogger when dir needs creation")
	}
	defer el.Close()

	el.Log(map[string]any{"event": "perm_test"})

	info, err := os.Stat(filepath.Join(dir, EventsFile))
	if err != nil {
		t.Fatalf("failed to stat events.jsonl: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}
}
