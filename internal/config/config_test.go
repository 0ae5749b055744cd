package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadReturnsErrNotConfiguredWhenMissing(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	_, err := Load()
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(CatalogEnv, "")

	cfg := Config{CatalogURL: "~/rankings", DataDir: "~/rank-data"}
	if err := Save(cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}

	exists, err := Exists()
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	wantCatalog := "file://" + filepath.ToSlash(filepath.Join(home, "rankings"))
	if loaded.CatalogURL != wantCatalog {
		t.Fatalf("expected catalog url %q, got %q", wantCatalog, loaded.CatalogURL)
	}
	if loaded.DataDir != filepath.Join(home, "rank-data") {
		t.Fatalf("expected data dir %q, got %q", filepath.Join(home, "rank-data"), loaded.DataDir)
	}
	if loaded.DraftBackend != DraftBackendFile {
		t.Fatalf("expected default draft backend %q, got %q", DraftBackendFile, loaded.DraftBackend)
	}
	if loaded.DraftDebounce() != 300*time.Millisecond {
		t.Fatalf("expected default debounce 300ms, got %v", loaded.DraftDebounce())
	}
	if loaded.OverscanRows() != 2 {
		t.Fatalf("expected default overscan 2, got %d", loaded.OverscanRows())
	}
	wantKeymap := filepath.Join(home, ".cli-rank", "keymap.yaml")
	if loaded.KeymapFile != wantKeymap {
		t.Fatalf("expected keymap file %q, got %q", wantKeymap, loaded.KeymapFile)
	}

	path, err := ConfigPath()
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat config path: %v", err)
	}
}

func TestLoadAppliesDefaultDataDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(CatalogEnv, "")

	writeRawConfig(t, home, `{"catalog_url":"mem://"}`)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	want := filepath.Join(home, ".cli-rank", "data")
	if cfg.DataDir != want {
		t.Fatalf("expected data dir %q, got %q", want, cfg.DataDir)
	}
	if cfg.DraftsDir() != filepath.Join(want, "drafts") {
		t.Fatalf("unexpected drafts dir %q", cfg.DraftsDir())
	}
}

func TestCatalogEnvOverridesConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(CatalogEnv, "s3://ranked?region=eu-west-1")

	writeRawConfig(t, home, `{"catalog_url":"mem://"}`)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.CatalogURL != "s3://ranked?region=eu-west-1" {
		t.Fatalf("expected env catalog url, got %q", cfg.CatalogURL)
	}
}

func TestLoadRejectsUnknownDraftBackend(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(CatalogEnv, "")

	writeRawConfig(t, home, `{"catalog_url":"mem://","draft_backend":"redis"}`)
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown draft backend")
	}
}

func TestGridConstraintsDefaults(t *testing.T) {
	zero := 0
	tests := []struct {
		name    string
		grid    GridConfig
		wantMin int
		wantGap int
		wantMax int
	}{
		{name: "empty", grid: GridConfig{}, wantMin: 24, wantGap: 1, wantMax: 8},
		{name: "explicit zero gap", grid: GridConfig{Gap: &zero}, wantMin: 24, wantGap: 0, wantMax: 8},
		{name: "custom", grid: GridConfig{MinCardWidth: 30, MaxColumns: 3}, wantMin: 30, wantGap: 1, wantMax: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gc := Config{Grid: tt.grid}.GridConstraints()
			if gc.MinCardWidth != tt.wantMin || gc.Gap != tt.wantGap || gc.MaxColumns != tt.wantMax {
				t.Fatalf("unexpected constraints %+v", gc)
			}
			if gc.MinColumns != 1 {
				t.Fatalf("expected min columns 1, got %d", gc.MinColumns)
			}
		})
	}
}

func TestExplicitZeroOverscanIsKept(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(CatalogEnv, "")

	writeRawConfig(t, home, `{"catalog_url":"mem://","overscan":0}`)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.OverscanRows() != 0 {
		t.Fatalf("expected overscan 0, got %d", cfg.OverscanRows())
	}
}

func TestNormalizeDirRejectsEmpty(t *testing.T) {
	if _, err := NormalizeDir("   "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func writeRawConfig(t *testing.T, home, body string) {
	t.Helper()
	configPath := filepath.Join(home, configDirName, configFileName)
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}
