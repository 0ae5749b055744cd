package app

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// truncate cuts s to at most width cells, keeping ANSI sequences intact.
func truncate(s string, width int) string {
	switch {
	case width <= 0:
		return ""
	case lipgloss.Width(s) <= width:
		return s
	}
	return ansi.Truncate(s, width, "")
}

// truncateWithEllipsis is truncate with a trailing "…" when text was cut.
func truncateWithEllipsis(s string, width int) string {
	switch {
	case width <= 0:
		return ""
	case lipgloss.Width(s) <= width:
		return s
	}
	return ansi.Truncate(s, width-1, "") + "…"
}

// padLine makes line exactly width cells wide.
func padLine(line string, width int) string {
	line = truncate(line, width)
	return line + strings.Repeat(" ", max(0, width-lipgloss.Width(line)))
}

// padBlock fills a width x height rectangle with content so stale cells from
// the previous frame are overwritten.
func padBlock(content string, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	blank := strings.Repeat(" ", width)
	src := strings.Split(content, "\n")

	var b strings.Builder
	for row := 0; row < height; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		if row < len(src) {
			b.WriteString(padLine(src[row], width))
		} else {
			b.WriteString(blank)
		}
	}
	return b.String()
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// renderWidthBucket rounds wide terminals down to a multiple of
// RenderWidthBucket so small resizes reuse cached renders.
func renderWidthBucket(width int) int {
	switch {
	case width <= 0:
		return 80
	case width < RenderWidthBucket:
		return width
	}
	return width - width%RenderWidthBucket
}
