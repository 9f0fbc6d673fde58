package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"error":   zapcore.ErrorLevel,
		"WARN":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		" info ":  zapcore.InfoLevel,
		"debug":   zapcore.DebugLevel,
		"verbose": zapcore.DebugLevel,
	}
	for input, want := range cases {
		if got := levelFromString(input); got != want {
			t.Fatalf("levelFromString(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestJSONFormatCarriesAttributes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "info", "json").With("component", "triage")
	logger.Warn("message skipped", "message_id", "m-1")
	logger.Debug("filtered out")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line above debug level, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("output is not json: %v", err)
	}
	if entry["component"] != "triage" || entry["message_id"] != "m-1" {
		t.Fatalf("attributes missing: %v", entry)
	}
	if entry["msg"] != "message skipped" {
		t.Fatalf("unexpected message: %v", entry["msg"])
	}
}

func TestConsoleFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewWithWriter(&buf, "debug", "console").Info("ready", "workers", 4)
	out := buf.String()
	if !strings.Contains(out, "INFO") || !strings.Contains(out, "ready") {
		t.Fatalf("unexpected console output %q", out)
	}
}

func TestDiscard(t *testing.T) {
	t.Parallel()
	Discard().Error("nothing to see")
}
