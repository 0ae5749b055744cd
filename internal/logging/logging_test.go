package logging

import (
	"bytes"
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
		{name: "default", input: "", want: slog.LevelInfo},
		{name: "debug", input: "debug", want: slog.LevelDebug},
		{name: "warn alias", input: "warning", want: slog.LevelWarn},
		{name: "error", input: " ERROR ", want: slog.LevelError},
		{name: "invalid", input: "nope", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Fatalf("parseLevel(%q): got %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSetOutputRedirectsExistingLoggers(t *testing.T) {
	log := New("draft")

	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel("info")
	t.Cleanup(func() { SetOutput(nil) })

	log.Info("restored draft", "ranking", "r1")

	got := buf.String()
	if !strings.Contains(got, "component=draft") {
		t.Fatalf("expected component attribute, got %q", got)
	}
	if !strings.Contains(got, "ranking=r1") {
		t.Fatalf("expected ranking attribute, got %q", got)
	}
}

func TestSetLevelFiltersDebug(t *testing.T) {
	log := New("app")

	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(nil)
		SetLevel("info")
	})

	SetLevel("warn")
	log.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered at warn level, got %q", buf.String())
	}
	log.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected warn entry, got %q", buf.String())
	}
}

func TestToFileCapturesAndRestores(t *testing.T) {
	log := New("editor")

	var before bytes.Buffer
	SetOutput(&before)
	SetLevel("info")
	t.Cleanup(func() { SetOutput(nil) })

	path := filepath.Join(t.TempDir(), "logs", "rank.log")
	restore, err := ToFile(path)
	if err != nil {
		t.Fatalf("ToFile: %v", err)
	}
	log.Info("session started")
	restore()
	log.Info("after editor")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "session started") {
		t.Fatalf("expected entry in log file, got %q", data)
	}
	if strings.Contains(string(data), "after editor") {
		t.Fatalf("entry after restore leaked into file: %q", data)
	}
	if got := before.String(); strings.Contains(got, "session started") || !strings.Contains(got, "after editor") {
		t.Fatalf("expected only the post-restore entry in the previous writer, got %q", got)
	}
}

func TestFileFromEnv(t *testing.T) {
	t.Setenv(FileEnv, "  ")
	if FileFromEnv() {
		t.Fatal("blank env should not count as a log file")
	}
	t.Setenv(FileEnv, "/tmp/rank.log")
	if !FileFromEnv() {
		t.Fatal("expected env log file to be detected")
	}
}
