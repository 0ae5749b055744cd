package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/treykane/cli-rank/internal/draft"
	"github.com/treykane/cli-rank/internal/ranking"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored rankings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rootOpts.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			summaries, err := s.catalog.ListRankings(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(summaries) == 0 {
				fmt.Fprintln(out, "No rankings")
				return nil
			}
			rows := make([][]string, 0, len(summaries))
			for _, sum := range summaries {
				marker := ""
				if _, ok, err := draft.LoadRecord(s.drafts, sum.ID); err == nil && ok {
					marker = "yes"
				}
				rows = append(rows, []string{sum.ID, sum.Title, strconv.Itoa(sum.ItemCount), formatTime(sum.UpdatedAt), marker})
			}
			return printTable(out, []string{"ID", "TITLE", "ITEMS", "UPDATED", "DRAFT"}, rows)
		},
	}
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	var useDraft bool
	cmd := &cobra.Command{
		Use:   "show <ranking-id>",
		Short: "Print a ranking as a numbered list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := rootOpts.openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			rk, err := s.catalog.FetchRanking(ctx, args[0])
			if err != nil {
				return err
			}
			items := rk.Items
			heading := rk.Title
			if useDraft {
				rec, ok, err := draft.LoadRecord(s.drafts, args[0])
				if err != nil {
					return err
				}
				if ok {
					all, err := s.catalog.FetchAllItems(ctx)
					if err != nil {
						return err
					}
					items, _ = ranking.List(rec.OrderedIDs).Resolve(ranking.NewUniverse(rk.Extra, all))
					heading += " (local draft)"
				}
			}
			printItems(cmd.OutOrStdout(), heading, items)
			return nil
		},
	}
	cmd.Flags().BoolVar(&useDraft, "draft", false, "show the unsaved local draft when one exists")
	return cmd
}

func printItems(out io.Writer, title string, items []ranking.Item) {
	if title != "" {
		fmt.Fprintf(out, "%s\n\n", title)
	}
	if len(items) == 0 {
		fmt.Fprintln(out, "(empty)")
		return
	}
	for i, it := range items {
		fmt.Fprintf(out, "%d. %s", i+1, it.Label())
		if it.Subtitle != "" {
			fmt.Fprintf(out, " (%s)", it.Subtitle)
		}
		fmt.Fprintln(out)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
