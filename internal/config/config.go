package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/treykane/cli-rank/internal/grid"
	"github.com/treykane/cli-rank/internal/logging"
)

const (
	configDirName  = ".cli-rank"
	configFileName = "config.json"

	// CatalogEnv overrides catalog_url for a single run.
	CatalogEnv = "CLI_RANK_CATALOG"
)

// Draft storage backends.
const (
	DraftBackendFile   = "file"
	DraftBackendSQLite = "sqlite"
	DraftBackendMemory = "memory"
)

const (
	defaultDebounceMS    = 300
	defaultOverscan      = 2
	defaultDragDistance  = 1
	defaultHoldTolerance = 0
	defaultNarrowWidth   = 80
)

var ErrNotConfigured = errors.New("cli-rank is not configured")

var log = logging.New("config")

// GridConfig mirrors grid.Constraints in the config file. Zero values fall
// back to grid.DefaultConstraints.
type GridConfig struct {
	MinCardWidth int  `json:"min_card_width,omitempty"`
	Gap          *int `json:"gap,omitempty"`
	RowHeight    int  `json:"row_height,omitempty"`
	MaxColumns   int  `json:"max_columns,omitempty"`
	MinColumns   int  `json:"min_columns,omitempty"`
}

// Config stores user-defined cli-rank settings.
type Config struct {
	// CatalogURL is a gocloud.dev blob URL: file://, mem://, s3:// or gs://.
	CatalogURL string `json:"catalog_url"`
	// DataDir holds local drafts.
	DataDir string `json:"data_dir"`

	DraftBackend    string `json:"draft_backend,omitempty"`
	DraftDebounceMS int    `json:"draft_debounce_ms,omitempty"`

	Grid     GridConfig `json:"grid"`
	Overscan *int       `json:"overscan,omitempty"`

	// DragDistance is how many cells a mouse press must travel before it
	// becomes a drag.
	DragDistance int `json:"drag_distance,omitempty"`
	// HoldDelayMS, when positive, switches to hold-to-drag: the press must be
	// held this long without moving more than HoldTolerance cells.
	HoldDelayMS   int `json:"hold_delay_ms,omitempty"`
	HoldTolerance int `json:"hold_tolerance,omitempty"`
	// NarrowWidth is the width below which the editor uses tabs.
	NarrowWidth int `json:"narrow_width,omitempty"`

	CompressRankings bool `json:"compress_rankings,omitempty"`

	Keybindings map[string]string `json:"keybindings,omitempty"`
	KeymapFile  string            `json:"keymap_file,omitempty"`
}

// DefaultDataDir returns the default directory for local drafts.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, configDirName, "data"), nil
}

// DefaultKeymapFile returns the default external keymap path.
func DefaultKeymapFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, configDirName, "keymap.yaml"), nil
}

// ConfigPath returns the configuration file path.
func ConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, configDirName, configFileName), nil
}

// Exists reports whether the config file exists.
func Exists() (bool, error) {
	path, err := ConfigPath()
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat config path: %w", err)
}

// Load reads and validates the saved configuration from the default path.
func Load() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	return LoadFrom(path)
}

// LoadFrom reads and validates the configuration at path. Defaults are
// applied and the catalog env override is honoured.
func LoadFrom(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, ErrNotConfigured
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if env := strings.TrimSpace(os.Getenv(CatalogEnv)); env != "" {
		cfg.CatalogURL = env
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes configuration to the default path.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

// SaveTo writes configuration to path.
func SaveTo(path string, cfg Config) error {
	if err := cfg.normalize(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	log.Info("saved config", "path", path)
	return nil
}

// normalize validates fields and fills defaults in place.
func (c *Config) normalize() error {
	c.CatalogURL = strings.TrimSpace(c.CatalogURL)
	if c.CatalogURL == "" {
		return errors.New("invalid catalog_url: url is required")
	}
	if !strings.Contains(c.CatalogURL, "://") {
		// A bare path is a local catalog directory.
		dir, err := NormalizeDir(c.CatalogURL)
		if err != nil {
			return fmt.Errorf("invalid catalog_url: %w", err)
		}
		c.CatalogURL = "file://" + filepath.ToSlash(dir)
	}

	if strings.TrimSpace(c.DataDir) == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return err
		}
		c.DataDir = dir
	}
	dataDir, err := NormalizeDir(c.DataDir)
	if err != nil {
		return fmt.Errorf("invalid data_dir: %w", err)
	}
	c.DataDir = dataDir

	c.DraftBackend = strings.ToLower(strings.TrimSpace(c.DraftBackend))
	switch c.DraftBackend {
	case "":
		c.DraftBackend = DraftBackendFile
	case DraftBackendFile, DraftBackendSQLite, DraftBackendMemory:
	default:
		return fmt.Errorf("invalid draft_backend %q: want file, sqlite or memory", c.DraftBackend)
	}

	if c.DraftDebounceMS <= 0 {
		c.DraftDebounceMS = defaultDebounceMS
	}
	if c.DragDistance <= 0 {
		c.DragDistance = defaultDragDistance
	}
	if c.HoldDelayMS < 0 {
		c.HoldDelayMS = 0
	}
	if c.HoldTolerance < 0 {
		c.HoldTolerance = defaultHoldTolerance
	}
	if c.NarrowWidth <= 0 {
		c.NarrowWidth = defaultNarrowWidth
	}
	if c.Overscan == nil || *c.Overscan < 0 {
		n := defaultOverscan
		c.Overscan = &n
	}

	if strings.TrimSpace(c.KeymapFile) == "" {
		path, err := DefaultKeymapFile()
		if err != nil {
			return err
		}
		c.KeymapFile = path
	} else {
		path, err := NormalizeDir(c.KeymapFile)
		if err != nil {
			return fmt.Errorf("invalid keymap_file: %w", err)
		}
		c.KeymapFile = path
	}
	return nil
}

// GridConstraints returns the grid constraints with defaults applied.
func (c Config) GridConstraints() grid.Constraints {
	gc := grid.Constraints{
		MinCardWidth: c.Grid.MinCardWidth,
		Gap:          grid.DefaultConstraints.Gap,
		RowHeight:    c.Grid.RowHeight,
		MaxColumns:   c.Grid.MaxColumns,
		MinColumns:   c.Grid.MinColumns,
	}
	if c.Grid.Gap != nil {
		gc.Gap = *c.Grid.Gap
	}
	if gc.MaxColumns == 0 {
		gc.MaxColumns = grid.DefaultConstraints.MaxColumns
	}
	return gc.Normalize()
}

// OverscanRows returns the overscan row count.
func (c Config) OverscanRows() int {
	if c.Overscan == nil {
		return defaultOverscan
	}
	return *c.Overscan
}

// DraftDebounce returns the draft debounce delay.
func (c Config) DraftDebounce() time.Duration {
	if c.DraftDebounceMS <= 0 {
		return defaultDebounceMS * time.Millisecond
	}
	return time.Duration(c.DraftDebounceMS) * time.Millisecond
}

// HoldDelay returns the hold-to-drag delay; zero means mouse movement
// activates drags instead.
func (c Config) HoldDelay() time.Duration {
	return time.Duration(c.HoldDelayMS) * time.Millisecond
}

// DraftsDir is where the file backend keeps draft files.
func (c Config) DraftsDir() string {
	return filepath.Join(c.DataDir, "drafts")
}

// DraftsDB is the sqlite backend database file.
func (c Config) DraftsDB() string {
	return filepath.Join(c.DataDir, "drafts.db")
}

// NormalizeDir expands and normalizes a filesystem path.
func NormalizeDir(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", errors.New("path is required")
	}

	expanded, err := expandHome(trimmed)
	if err != nil {
		return "", err
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", err
	}

	return filepath.Clean(abs), nil
}

func expandHome(path string) (string, error) {
	if path == "~" {
		return os.UserHomeDir()
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
	}
	return path, nil
}
