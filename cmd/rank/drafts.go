package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/treykane/cli-rank/internal/draft"
)

// NewDraftsCommand creates the drafts command.
func NewDraftsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "drafts",
		Short: "List rankings with unsaved local edits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rootOpts.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			lister, ok := s.drafts.(draft.Lister)
			if !ok {
				return errors.New("the configured draft backend cannot list drafts")
			}
			keys, err := lister.Keys(draft.KeyPrefix)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(keys) == 0 {
				fmt.Fprintln(out, "No drafts")
				return nil
			}

			rows := make([][]string, 0, len(keys))
			for _, key := range keys {
				id := strings.TrimPrefix(key, draft.KeyPrefix)
				rec, ok, err := draft.LoadRecord(s.drafts, id)
				if err != nil {
					log.Warn("skip unreadable draft", "ranking", id, "error", err)
					continue
				}
				if !ok {
					continue
				}
				rows = append(rows, []string{id, strconv.Itoa(len(rec.OrderedIDs)), formatTime(rec.UpdatedAt)})
			}
			return printTable(out, []string{"RANKING", "ITEMS", "UPDATED"}, rows)
		},
	}
}

// NewDiscardCommand creates the discard command.
func NewDiscardCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "discard <ranking-id>",
		Short: "Drop the unsaved local draft of a ranking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rootOpts.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			id := args[0]
			if _, ok, err := draft.LoadRecord(s.drafts, id); err == nil && !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "No draft for %s\n", id)
				return nil
			}
			if err := s.drafts.Remove(draft.Key(id)); err != nil {
				return fmt.Errorf("discard draft %s: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Discarded draft for %s\n", id)
			return nil
		},
	}
}
