package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&buf, "warn", "json")
	if err != nil {
		t.Fatalf("NewWithWriter: %v", err)
	}

	log.Info("hidden")
	log.Warn("shown", "attempt", 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if rec["msg"] != "shown" || rec["attempt"] != float64(2) {
		t.Errorf("record = %v", rec)
	}
}

func TestNewWithWriterText(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&buf, "debug", "text")
	if err != nil {
		t.Fatalf("NewWithWriter: %v", err)
	}
	log.Debug("refreshing", "path", "/v3/auth/me")
	if !strings.Contains(buf.String(), "path=/v3/auth/me") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestNewInvalid(t *testing.T) {
	if _, err := New("info", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, err := New("loud", "text"); err == nil {
		t.Error("expected error for unknown level")
	}
}
