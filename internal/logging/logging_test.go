package logging_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Tiliavir/gitlab-time-sync/internal/logging"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := logging.ParseLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := logging.ParseLevel("loud"); err == nil {
		t.Error(`ParseLevel("loud"): expected error`)
	}
}

func TestNewStderr(t *testing.T) {
	var buf bytes.Buffer
	log, closer, err := logging.New(logging.Options{Level: "warn"}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	defer closer.Close()

	log.Info("hidden")
	log.Warn("shown", "issue", "42")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line logged at warn level:\n%s", out)
	}
	if !strings.Contains(out, "msg=shown issue=42") {
		t.Errorf("warn line missing:\n%s", out)
	}
}

func TestNewVerbose(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := logging.New(logging.Options{Level: "error", Verbose: true}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	log.Debug("details")
	if !strings.Contains(buf.String(), "details") {
		t.Error("verbose should enable debug output")
	}
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gts.log")
	var stderr bytes.Buffer
	log, closer, err := logging.New(logging.Options{File: path, MaxSizeMB: 1, MaxBackups: 1}, &stderr)
	if err != nil {
		t.Fatal(err)
	}
	log.Info("to file")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("log file content = %q", data)
	}
	if stderr.Len() != 0 {
		t.Errorf("nothing should reach stderr, got %q", stderr.String())
	}
}

func TestNewBadLevel(t *testing.T) {
	if _, _, err := logging.New(logging.Options{Level: "chatty"}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown level")
	}
}
