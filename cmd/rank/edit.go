package main

import (
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/treykane/cli-rank/internal/app"
	"github.com/treykane/cli-rank/internal/logging"
)

// editorLogName is the log file under data_dir used while the editor owns
// the terminal.
const editorLogName = "rank.log"

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <ranking-id>",
		Short: "Open a ranking in the editor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rootOpts.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			restore, err := redirectEditorLogs(s.cfg.DataDir)
			if err != nil {
				return err
			}
			defer restore()

			m := app.New(s.cfg, app.Options{
				RankingID: args[0],
				Source:    s.catalog,
				Persister: s.catalog,
				Storage:   s.drafts,
			})
			// Quit flushes the draft; this covers a program that stopped on
			// an error or a signal.
			defer m.Shell().Close()

			p := tea.NewProgram(m,
				tea.WithAltScreen(),
				tea.WithMouseCellMotion(),
				tea.WithContext(cmd.Context()),
			)
			_, err = p.Run()
			return err
		},
	}
}

// redirectEditorLogs keeps stderr clear of log lines while the alt screen is
// up. An explicit CLI_RANK_LOG_FILE wins; otherwise logs go to data_dir.
func redirectEditorLogs(dataDir string) (func(), error) {
	if logging.FileFromEnv() {
		return func() {}, nil
	}
	return logging.ToFile(filepath.Join(dataDir, editorLogName))
}
