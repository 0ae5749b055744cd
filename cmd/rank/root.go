package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/treykane/cli-rank/internal/app"
	"github.com/treykane/cli-rank/internal/catalog"
	"github.com/treykane/cli-rank/internal/config"
	"github.com/treykane/cli-rank/internal/draft"
	"github.com/treykane/cli-rank/internal/logging"
)

var log = logging.New("cli")

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
}

// NewRootCommand creates the rank command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank catalog items in the terminal",
		Long: `rank edits ordered rankings drawn from an item catalog.

Drag cards from the pool into the ranking with the mouse or keyboard.
Unsaved edits are kept as a local draft until you save or discard them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ~/.cli-rank/config.json)")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewEditCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewDraftsCommand(opts))
	cmd.AddCommand(NewDiscardCommand(opts))

	return cmd
}

// configPath returns the --config value or the default location.
func (o *RootOptions) configPath() (string, error) {
	if strings.TrimSpace(o.ConfigPath) != "" {
		return config.NormalizeDir(o.ConfigPath)
	}
	return config.ConfigPath()
}

// loadConfig reads the configuration, pointing at init when none exists.
func (o *RootOptions) loadConfig() (config.Config, error) {
	path, err := o.configPath()
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := config.LoadFrom(path)
	if errors.Is(err, config.ErrNotConfigured) {
		return config.Config{}, fmt.Errorf("%w: run `rank init` first", err)
	}
	return cfg, err
}

// session bundles the catalog and draft storage a command works against.
type session struct {
	cfg     config.Config
	catalog *catalog.Bucket
	drafts  draft.Storage
	closers []io.Closer
}

func (o *RootOptions) openSession(ctx context.Context) (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg}

	storage, closer, err := app.OpenDraftStorage(cfg)
	if err != nil {
		return nil, err
	}
	s.drafts = storage
	s.closers = append(s.closers, closer)

	bucket, err := catalog.OpenBucket(ctx, cfg.CatalogURL, catalog.Options{Compress: cfg.CompressRankings})
	if err != nil {
		s.Close()
		return nil, err
	}
	s.catalog = bucket
	s.closers = append(s.closers, bucket)
	return s, nil
}

// Close releases everything in reverse order of opening.
func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			log.Warn("close session resource", "error", err)
		}
	}
	s.closers = nil
}
