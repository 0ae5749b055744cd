package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/treykane/cli-rank/internal/drag"
	"github.com/treykane/cli-rank/internal/editor"
	"github.com/treykane/cli-rank/internal/ranking"
)

// View draws the title bar, the editor body, and the status footer.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	layout := m.calculateLayout()
	parts := []string{m.renderHeader(m.width)}
	if layout.BodyHeight > 0 {
		parts = append(parts, padBlock(m.renderBody(layout), m.width, layout.BodyHeight))
	}
	parts = append(parts, m.renderStatus(m.width, layout.FooterHeight))
	return padBlock(strings.Join(parts, "\n"), m.width, m.height)
}

// renderHeader draws the title bar with the ranking title and a modified
// marker.
func (m *Model) renderHeader(width int) string {
	title := m.shell.Title()
	if title == "" {
		title = m.opts.RankingID
	}
	line := " cli-rank │ " + title
	if !m.shell.Loaded() || !m.shell.IsDirty() || width < 3 {
		return headerStyle.Render(padLine(truncateWithEllipsis(line, width), width))
	}
	line = truncateWithEllipsis(line, width-2)
	mark := headerStyle.Inherit(dirtyStyle).Render(padLine(" ●", width-lipgloss.Width(line)))
	return headerStyle.Render(line) + mark
}

// renderBody picks what fills the space between header and footer.
func (m *Model) renderBody(layout LayoutDimensions) string {
	switch m.mode {
	case modeLoading:
		return "\n  " + m.spinner.View() + " Loading ranking " + m.opts.RankingID + "..."
	case modeLoadFailed:
		retry := m.primaryActionKey(actionReload, "Ctrl+R")
		quit := m.primaryActionKey(actionQuit, "q")
		return "\n  " + errorStyle.Render(truncate("Could not load ranking: "+errString(m.loadErr), max(0, layout.BodyWidth-2))) +
			"\n\n  " + mutedStyle.Render(fmt.Sprintf("Press %s to retry or %s to quit.", retry, quit))
	}
	if m.overlay != overlayNone {
		return m.renderDocOverlay(layout.BodyWidth, layout.BodyHeight)
	}
	return m.renderPanes()
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

// renderPanes draws both panes side by side, or the active tab when the
// terminal is narrow.
func (m *Model) renderPanes() string {
	l := m.shell.Layout()
	if l.Narrow {
		return m.renderPane(l.Tab, l)
	}
	gutter := padBlock("", l.TargetFrame.X-l.PoolFrame.W, l.Height)
	return lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderPane(editor.PanePool, l), gutter, m.renderPane(editor.PaneTarget, l))
}

// renderPane draws one pane: its header line and the virtualized rows of
// cards. Only rows in the virtualizer window are rendered.
func (m *Model) renderPane(p editor.Pane, l editor.LayoutContext) string {
	frame, area, cfg := l.Frame(p), l.Area(p), l.Grid(p)
	if frame.W <= 0 || frame.H <= 0 {
		return ""
	}

	grid := make([]string, area.H)
	if m.shell.Count(p) == 0 && area.H > 0 {
		grid[0] = mutedStyle.Render(m.emptyPaneText(p))
	}
	for _, row := range m.shell.Window(p).Rows {
		ids := m.shell.Row(p, row.Index)
		cards := make([][]string, len(ids))
		for c, id := range ids {
			cards[c] = m.renderCard(p, row.Index*cfg.Columns+c, id, cfg.ColumnWidth, row.Size)
		}
		for i := 0; i < row.Size; i++ {
			y := row.Offset + i
			if y < 0 || y >= area.H {
				continue
			}
			var b strings.Builder
			for c := range cards {
				if c > 0 {
					b.WriteString(strings.Repeat(" ", cfg.Gap))
				}
				b.WriteString(cards[c][i])
			}
			grid[y] = b.String()
		}
	}

	left := strings.Repeat(" ", max(0, area.X-frame.X))
	right := strings.Repeat(" ", max(0, frame.W-area.W-(area.X-frame.X)))
	lines := make([]string, 0, frame.H)
	lines = append(lines, m.renderPaneHeader(p, l, frame.W))
	for _, g := range grid {
		lines = append(lines, left+padLine(g, area.W)+right)
	}
	return padBlock(strings.Join(lines, "\n"), frame.W, frame.H)
}

func (m *Model) emptyPaneText(p editor.Pane) string {
	if p == editor.PaneTarget {
		return "Nothing ranked yet. Drag cards here."
	}
	if m.shell.Pool().Query() != "" {
		return "(no matches)"
	}
	return "(pool is empty)"
}

// renderPaneHeader draws the pane title, or the tab bar in the narrow
// layout. A drop marker shows when the pane itself is the drop candidate.
func (m *Model) renderPaneHeader(p editor.Pane, l editor.LayoutContext, width int) string {
	if l.Narrow {
		half := width / 2
		tabs := []struct {
			pane  editor.Pane
			width int
		}{{editor.PanePool, half}, {editor.PaneTarget, width - half}}
		var b strings.Builder
		for _, t := range tabs {
			style := inactiveTab
			if t.pane == l.Tab {
				style = activeTab
			}
			label := " " + m.paneTitle(t.pane) + m.dropMarker(t.pane)
			b.WriteString(style.Render(padLine(truncateWithEllipsis(label, t.width), t.width)))
		}
		return b.String()
	}

	style := mutedStyle
	if m.focus == p {
		style = titleStyle
	}
	label := " " + m.paneTitle(p)
	return style.Render(truncateWithEllipsis(label, width)) + m.dropMarker(p)
}

func (m *Model) paneTitle(p editor.Pane) string {
	if p == editor.PaneTarget {
		return fmt.Sprintf("Ranking (%d)", m.shell.Count(editor.PaneTarget))
	}
	pool := m.shell.Pool()
	title := fmt.Sprintf("Pool (%d/%d) sort:%s", m.shell.Count(editor.PanePool), pool.Len(), pool.SortMode())
	if q := pool.Query(); q != "" {
		title += fmt.Sprintf(" filter:%q", q)
	}
	return title
}

// dropMarker flags a pane-level drop candidate: the end of the ranking or
// the pool.
func (m *Model) dropMarker(p editor.Pane) string {
	if !m.shell.Dragging() {
		return ""
	}
	switch c := m.shell.DropCandidate(); {
	case p == editor.PaneTarget && c.Kind == drag.CandidateContainer:
		return dropZoneMark.Render(" ▸ add at end")
	case p == editor.PanePool && c.Kind == drag.CandidatePoolArea:
		if inst, ok := m.shell.ActiveDrag(); ok && inst.Origin == drag.Target {
			return dropZoneMark.Render(" ▸ remove")
		}
	}
	return ""
}

// renderCard returns the height lines of one card, each exactly width
// cells wide.
func (m *Model) renderCard(p editor.Pane, idx int, id ranking.ID, width, height int) []string {
	item, ok := m.shell.Item(id)
	if !ok {
		item = ranking.Item{ID: id}
	}

	title := item.Label()
	switch {
	case p == editor.PaneTarget:
		title = fmt.Sprintf("#%d %s", idx+1, title)
	case !m.shell.Pool().Available(id):
		title = "✓ " + title
	}
	text := []string{title, item.Subtitle, strings.Join(item.Tags, ", ")}

	style := m.cardStyleFor(p, idx, id)
	out := make([]string, height)
	for i := range out {
		line := ""
		if i < len(text) && text[i] != "" {
			line = " " + truncateWithEllipsis(text[i], max(0, width-2))
		}
		out[i] = style.Render(padLine(line, width))
	}
	return out
}

// cardStyleFor picks the card style. A lifted card is drawn as a ghost in
// its origin slot; the card under the drop position is highlighted.
func (m *Model) cardStyleFor(p editor.Pane, idx int, id ranking.ID) lipgloss.Style {
	origin := drag.Pool
	if p == editor.PaneTarget {
		origin = drag.Target
	}
	dragging := m.shell.Dragging()
	if dragging && m.shell.Lifted(drag.Instance{Origin: origin, ID: id}) {
		return liftedCard
	}
	if dragging && p == editor.PaneTarget {
		if c := m.shell.DropCandidate(); c.Kind == drag.CandidateItem && c.Index == idx {
			return dropCard
		}
	}
	if !dragging && idx == m.cursor[p] {
		if m.focus == p {
			return cursorCard
		}
		return cursorBlurred
	}
	if p == editor.PanePool && !m.shell.Pool().Available(id) {
		return placedCard
	}
	return cardStyle
}

// renderDocOverlay draws the help or detail document centered over the
// body.
func (m *Model) renderDocOverlay(width, height int) string {
	title := "Details"
	if m.overlay == overlayHelp {
		title = "Help"
	}
	content := titleStyle.Render(title) + "\n" + m.doc.View()
	box := popupStyle.Width(m.doc.Width + 2).Render(content)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
