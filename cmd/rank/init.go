package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/treykane/cli-rank/internal/catalog"
	"github.com/treykane/cli-rank/internal/config"
	"github.com/treykane/cli-rank/internal/ranking"
)

type initOptions struct {
	catalogURL string
	dataDir    string
	backend    string
	sample     bool
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &initOptions{}
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the config file and seed an empty catalog",
		Long: `Write the config file and, when the catalog has no items yet, seed it
with a small sample catalog and one ranking to try the editor on.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, rootOpts, opts)
		},
	}
	cmd.Flags().StringVar(&opts.catalogURL, "catalog", "", "catalog location: a directory or a file://, mem://, s3:// or gs:// URL (default ~/.cli-rank/catalog)")
	cmd.Flags().StringVar(&opts.dataDir, "data", "", "directory for local drafts (default ~/.cli-rank/data)")
	cmd.Flags().StringVar(&opts.backend, "drafts", config.DraftBackendFile, "draft storage backend: file, sqlite or memory")
	cmd.Flags().BoolVar(&opts.sample, "sample", true, "seed an empty catalog with sample items")
	return cmd
}

func runInit(cmd *cobra.Command, rootOpts *RootOptions, opts *initOptions) error {
	path, err := rootOpts.configPath()
	if err != nil {
		return err
	}

	catalogURL := opts.catalogURL
	if strings.TrimSpace(catalogURL) == "" {
		dataRoot, err := config.DefaultDataDir()
		if err != nil {
			return err
		}
		catalogURL = filepath.Join(filepath.Dir(dataRoot), "catalog")
	}

	cfg := config.Config{
		CatalogURL:   catalogURL,
		DataDir:      opts.dataDir,
		DraftBackend: opts.backend,
	}
	if err := config.SaveTo(path, cfg); err != nil {
		return err
	}
	cfg, err = config.LoadFrom(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)

	if dir, ok := strings.CutPrefix(cfg.CatalogURL, "file://"); ok {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create catalog dir: %w", err)
		}
	}
	if !opts.sample {
		return nil
	}

	ctx := cmd.Context()
	bucket, err := catalog.OpenBucket(ctx, cfg.CatalogURL, catalog.Options{Compress: cfg.CompressRankings})
	if err != nil {
		return err
	}
	defer bucket.Close()

	items, err := bucket.FetchAllItems(ctx)
	if err != nil {
		return err
	}
	if len(items) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Catalog already has %d items\n", len(items))
		return nil
	}

	if err := bucket.PutItems(ctx, sampleItems); err != nil {
		return err
	}
	id, err := bucket.CreateRanking(ctx, "Sample ranking", ranking.IDs(sampleItems[:3]), nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d sample items\nTry: rank edit %s\n", len(sampleItems), id)
	return nil
}

var sampleItems = []ranking.Item{
	{ID: "go", Title: "Go", Subtitle: "2009", Tags: []string{"compiled", "gc"}},
	{ID: "rust", Title: "Rust", Subtitle: "2015", Tags: []string{"compiled"}},
	{ID: "zig", Title: "Zig", Subtitle: "2016", Tags: []string{"compiled"}},
	{ID: "c", Title: "C", Subtitle: "1972", Tags: []string{"compiled"}},
	{ID: "python", Title: "Python", Subtitle: "1991", Tags: []string{"interpreted", "gc"}},
	{ID: "ocaml", Title: "OCaml", Subtitle: "1996", Tags: []string{"functional", "gc"}},
	{ID: "haskell", Title: "Haskell", Subtitle: "1990", Tags: []string{"functional", "gc"}},
	{ID: "erlang", Title: "Erlang", Subtitle: "1986", Tags: []string{"functional", "gc"}},
	{ID: "lua", Title: "Lua", Subtitle: "1993", Tags: []string{"interpreted", "embedded"}},
	{ID: "ruby", Title: "Ruby", Subtitle: "1995", Tags: []string{"interpreted", "gc"}},
	{ID: "kotlin", Title: "Kotlin", Subtitle: "2011", Tags: []string{"jvm", "gc"}},
	{ID: "elixir", Title: "Elixir", Subtitle: "2012", Tags: []string{"functional", "beam"}},
}
