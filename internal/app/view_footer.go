package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m *Model) renderStatus(width, rows int) string {
	statusRows, _ := m.buildStatusRows(width, rows)
	style := statusStyle
	if m.shell.Dragging() || m.mode == modeConfirmDiscard {
		style = dragStatus
	}
	for len(statusRows) < rows {
		statusRows = append(statusRows, "")
	}

	rendered := make([]string, 0, len(statusRows))
	for _, line := range statusRows {
		line = " " + truncate(line, max(0, width-1))
		rendered = append(rendered, style.Width(width).Render(line))
	}
	return strings.Join(rendered, "\n")
}

func (m *Model) buildStatusRows(width, rowLimit int) ([]string, bool) {
	if width <= 0 || rowLimit <= 0 {
		return nil, true
	}

	help := m.statusHelpSegments()
	context := m.statusContextSegments()
	status := m.statusMessageSegment()

	segments := make([]string, 0, len(help)+len(context)+2)
	if status != "" {
		segments = append(segments, status)
	}
	if len(context) > 0 {
		segments = append(segments, context...)
	}
	if len(help) > 0 {
		segments = append(segments, "Keys: "+help[0])
		segments = append(segments, help[1:]...)
	}

	rows := make([]string, 1, rowLimit)
	rowIndex := 0
	fit := true
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		segment := seg
		if lipgloss.Width(segment) > width {
			segment = truncateWithEllipsis(segment, width)
		}

		candidate := segment
		if rows[rowIndex] != "" {
			candidate = rows[rowIndex] + " | " + segment
		}
		if lipgloss.Width(candidate) <= width {
			rows[rowIndex] = candidate
			continue
		}
		if rowIndex+1 < rowLimit {
			rowIndex++
			rows = append(rows, segment)
			continue
		}

		fit = false
		if rows[rowIndex] == "" {
			rows[rowIndex] = truncateWithEllipsis(segment, width)
		} else {
			rows[rowIndex] = truncateWithEllipsis(rows[rowIndex]+" | "+segment, width)
		}
		break
	}
	return rows, fit
}

func (m *Model) statusHelpSegments() []string {
	switch m.mode {
	case modeLoading:
		return []string{m.primaryActionKey(actionQuit, "q") + " quit"}
	case modeLoadFailed:
		return []string{
			m.primaryActionKey(actionReload, "Ctrl+R") + " retry",
			m.primaryActionKey(actionQuit, "q") + " quit",
		}
	case modeFilter:
		return []string{"type to filter", "Enter keep", "Esc clear"}
	case modeConfirmDiscard:
		return []string{"y discard", "n/Esc keep"}
	}
	if m.overlay != overlayNone {
		return []string{"↑/↓ PgUp/PgDn scroll", "Esc close"}
	}
	if m.keyboardDrag {
		return []string{
			"arrows move drop",
			m.primaryActionKey(actionFocusToggle, "Tab") + " pane",
			m.primaryActionKey(actionPickUp, "Space") + "/Enter drop",
			"Esc cancel",
		}
	}
	if m.mousePressed {
		return []string{"drag onto the ranking", "release to drop"}
	}

	key := func(action, fallback, label string) string {
		return m.primaryActionKey(action, fallback) + " " + label
	}
	return []string{
		"arrows move",
		key(actionFocusToggle, "Tab", "pane"),
		key(actionPickUp, "Space", "pick up"),
		key(actionAppend, "a", "add"),
		key(actionRemove, "x", "remove"),
		key(actionMoveEarlier, "Shift+K", "up"),
		key(actionMoveLater, "Shift+J", "down"),
		key(actionFilter, "/", "filter"),
		key(actionSort, "s", "sort"),
		key(actionDetail, "i", "details"),
		key(actionSave, "Ctrl+S", "save"),
		key(actionDiscard, "Shift+D", "discard"),
		key(actionCopy, "y", "copy"),
		key(actionHelp, "?", "help"),
		key(actionQuit, "q", "quit"),
	}
}

func (m *Model) statusContextSegments() []string {
	if !m.shell.Loaded() {
		return nil
	}
	parts := make([]string, 0, 2)
	if metrics := m.rankingMetricsSummary(); metrics != "" {
		parts = append(parts, metrics)
	}
	parts = append(parts, fmt.Sprintf("Draft: %s", m.draftStateSummary()))
	return parts
}

func (m *Model) statusMessageSegment() string {
	if m.mode == modeFilter {
		return m.filter.View()
	}
	if m.shell.Dragging() {
		if preview := m.dropPreviewText(); preview != "" {
			return preview
		}
	}
	return strings.TrimSpace(m.status)
}
