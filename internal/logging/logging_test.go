package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rechan/internal/config"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		raw  string
		want slog.Leveler
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}

	for _, tc := range cases {
		got, err := parseLevel(tc.raw)
		if err != nil {
			t.Fatalf("parseLevel(%q): %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}

	if _, err := parseLevel("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestConfigureRejectsUnknownLevel(t *testing.T) {
	m := NewManager()
	err := m.Configure(config.LoggingConfig{Level: "verbose"}, "")
	if err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestConfigureWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rechan.log")
	m := NewManager()
	if err := m.Configure(config.LoggingConfig{Level: "info", LogToFile: true}, path); err != nil {
		t.Fatalf("configure: %v", err)
	}

	m.Logger("test").Info("channel open", "address", "ws://localhost:8000/ws")
	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(raw)
	if !strings.Contains(out, "channel open") || !strings.Contains(out, "component=test") {
		t.Fatalf("log file missing expected record: %q", out)
	}
}
