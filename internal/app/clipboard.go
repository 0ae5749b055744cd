package app

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/treykane/cli-rank/internal/ranking"
)

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

// copyRankingToClipboard copies the current order as a numbered list, one
// card per line.
func (m *Model) copyRankingToClipboard() {
	list := m.shell.List()
	if len(list) == 0 {
		m.status = "Ranking is empty"
		return
	}
	text := formatRanking(m.shell.Title(), list, m.shell.Universe())
	if err := writeClipboard(text); err != nil {
		m.setStatusError("Clipboard copy failed", err)
		return
	}
	m.status = fmt.Sprintf("Copied ranking (%d items)", len(list))
}

// formatRanking renders list as a numbered plain-text list.
func formatRanking(title string, list ranking.List, u *ranking.Universe) string {
	var b strings.Builder
	if title = strings.TrimSpace(title); title != "" {
		b.WriteString(title)
		b.WriteString("\n\n")
	}
	for i, id := range list {
		label := string(id)
		subtitle := ""
		if item, ok := u.Resolve(id); ok {
			label = item.Label()
			subtitle = item.Subtitle
		}
		fmt.Fprintf(&b, "%d. %s", i+1, label)
		if subtitle != "" {
			fmt.Fprintf(&b, " (%s)", subtitle)
		}
		b.WriteString("\n")
	}
	return b.String()
}
