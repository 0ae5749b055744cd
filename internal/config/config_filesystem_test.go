package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// captureLogOutput swaps the package logger for the duration of fn.
func captureLogOutput(t *testing.T, fn func()) []byte {
	t.Helper()
	var buf bytes.Buffer
	prev := log
	log = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	defer func() { log = prev }()
	fn()
	return buf.Bytes()
}

func TestSaveToFailsWhenParentIsAFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}

	err := SaveTo(filepath.Join(blocker, "config.json"), Config{CatalogURL: "mem://", DataDir: dir})
	if err == nil || !strings.Contains(err.Error(), "create config dir") {
		t.Fatalf("expected create config dir error, got %v", err)
	}
}

func TestSaveToFailsWhenTargetIsADirectory(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	target := filepath.Join(dir, "config.json")
	if err := os.Mkdir(target, 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	err := SaveTo(target, Config{CatalogURL: "mem://", DataDir: dir})
	if err == nil || !strings.Contains(err.Error(), "write config") {
		t.Fatalf("expected write config error, got %v", err)
	}
}

func TestSaveToLogsPathAndRestrictsMode(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "nested", "config.json")

	out := captureLogOutput(t, func() {
		if err := SaveTo(path, Config{CatalogURL: "mem://", DataDir: dir}); err != nil {
			t.Fatalf("SaveTo: %v", err)
		}
	})
	if !strings.Contains(string(out), "saved config") || !strings.Contains(string(out), path) {
		t.Fatalf("expected saved config log with path, got %q", out)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 config file, got %o", perm)
	}
}

func TestSaveToRejectsMissingCatalog(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "config.json")

	err := SaveTo(path, Config{CatalogURL: "   ", DataDir: dir})
	if err == nil || !strings.Contains(err.Error(), "catalog_url") {
		t.Fatalf("expected catalog_url error, got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatalf("config should not be written on validation failure, stat err %v", statErr)
	}
}

func TestLoadFromReadAndParseErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadFrom(dir); err == nil || !strings.Contains(err.Error(), "read config") {
		t.Fatalf("expected read config error for a directory, got %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"catalog_url": `), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFrom(bad); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected parse config error, got %v", err)
	}
}

func TestBareCatalogPathBecomesFileURL(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(CatalogEnv, "")

	path := filepath.Join(home, "config.json")
	if err := os.WriteFile(path, []byte(`{"catalog_url": "~/catalog"}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	want := "file://" + filepath.ToSlash(filepath.Join(home, "catalog"))
	if cfg.CatalogURL != want {
		t.Fatalf("expected %q, got %q", want, cfg.CatalogURL)
	}
}

func TestDraftPathsLiveUnderDataDir(t *testing.T) {
	cfg := Config{DataDir: filepath.Join("/", "srv", "rank")}

	if got, want := cfg.DraftsDir(), filepath.Join("/", "srv", "rank", "drafts"); got != want {
		t.Fatalf("DraftsDir = %q, want %q", got, want)
	}
	if got, want := cfg.DraftsDB(), filepath.Join("/", "srv", "rank", "drafts.db"); got != want {
		t.Fatalf("DraftsDB = %q, want %q", got, want)
	}
}

func TestKeymapFileDefaultsUnderConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := Config{CatalogURL: "mem://"}
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if want := filepath.Join(home, configDirName, "keymap.yaml"); cfg.KeymapFile != want {
		t.Fatalf("expected default keymap %q, got %q", want, cfg.KeymapFile)
	}

	cfg = Config{CatalogURL: "mem://", KeymapFile: "~/keys/custom.yaml"}
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if want := filepath.Join(home, "keys", "custom.yaml"); cfg.KeymapFile != want {
		t.Fatalf("expected expanded keymap %q, got %q", want, cfg.KeymapFile)
	}
}

func TestTimingDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := Config{CatalogURL: "mem://", HoldDelayMS: -50, DraftDebounceMS: -1}
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.HoldDelay() != 0 {
		t.Fatalf("expected negative hold delay to clamp to 0, got %v", cfg.HoldDelay())
	}
	if got := cfg.DraftDebounce().Milliseconds(); got != defaultDebounceMS {
		t.Fatalf("expected %dms debounce, got %dms", defaultDebounceMS, got)
	}

	cfg.HoldDelayMS = 250
	if got := cfg.HoldDelay().Milliseconds(); got != 250 {
		t.Fatalf("expected 250ms hold delay, got %dms", got)
	}
}

func TestDefaultDataDirNeedsHome(t *testing.T) {
	t.Setenv("HOME", "")

	if _, err := DefaultDataDir(); err == nil {
		t.Fatal("expected DefaultDataDir to fail without HOME")
	}
	if _, err := ConfigPath(); err == nil {
		t.Fatal("expected ConfigPath to fail without HOME")
	}
	if _, err := Exists(); err == nil {
		t.Fatal("expected Exists to fail without HOME")
	}
}
