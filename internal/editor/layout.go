package editor

import "github.com/treykane/cli-rank/internal/grid"

// Pane identifies one of the two editor panes.
type Pane int

const (
	// PanePool is the source pool.
	PanePool Pane = iota
	// PaneTarget is the ranking under edit.
	PaneTarget
)

func (p Pane) String() string {
	if p == PaneTarget {
		return "ranking"
	}
	return "pool"
}

// Other returns the opposite pane.
func (p Pane) Other() Pane {
	if p == PaneTarget {
		return PanePool
	}
	return PaneTarget
}

const (
	// DefaultNarrowWidth is the body width below which only one pane is
	// shown at a time.
	DefaultNarrowWidth = 80

	// paneHeaderHeight is the title line (or tab bar) above each grid.
	paneHeaderHeight = 1
	// panePadding is the blank column on each side of a grid.
	panePadding = 1
	// paneGutter separates the two panes in the wide layout.
	paneGutter = 1
)

// Rect is an area in body coordinates: (0,0) is the top-left cell below
// the application header.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether the cell (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// LayoutContext is the measured layout for the current body size. The
// shell owns it and hands it to the grid engine and the virtualizers; the
// front end reads it to place panes and to hit-test the mouse.
type LayoutContext struct {
	Width  int
	Height int
	Narrow bool
	Tab    Pane

	// PoolFrame and TargetFrame are the full pane areas, header included.
	PoolFrame   Rect
	TargetFrame Rect
	// Pool and Target are the grid areas inside each pane.
	Pool   Rect
	Target Rect

	PoolGrid   grid.Config
	TargetGrid grid.Config
}

// Visible reports whether pane p is on screen.
func (l LayoutContext) Visible(p Pane) bool {
	return !l.Narrow || l.Tab == p
}

// Frame returns the full area of pane p.
func (l LayoutContext) Frame(p Pane) Rect {
	if p == PaneTarget {
		return l.TargetFrame
	}
	return l.PoolFrame
}

// Area returns the grid area of pane p.
func (l LayoutContext) Area(p Pane) Rect {
	if p == PaneTarget {
		return l.Target
	}
	return l.Pool
}

// Grid returns the grid configuration of pane p.
func (l LayoutContext) Grid(p Pane) grid.Config {
	if p == PaneTarget {
		return l.TargetGrid
	}
	return l.PoolGrid
}

// PaneAt returns the visible pane whose frame contains (x, y).
func (l LayoutContext) PaneAt(x, y int) (Pane, bool) {
	for _, p := range []Pane{PanePool, PaneTarget} {
		if l.Visible(p) && l.Frame(p).Contains(x, y) {
			return p, true
		}
	}
	return PanePool, false
}

// computeLayout splits a width x height body into panes. In the narrow
// layout both panes share the full area and only the active tab is visible.
func computeLayout(width, height, narrowWidth int, tab Pane, constraints grid.Constraints) LayoutContext {
	width = max(0, width)
	height = max(0, height)
	l := LayoutContext{
		Width:  width,
		Height: height,
		Narrow: width < narrowWidth,
		Tab:    tab,
	}

	if l.Narrow {
		full := Rect{X: 0, Y: 0, W: width, H: height}
		l.PoolFrame = full
		l.TargetFrame = full
	} else {
		poolW := (width - paneGutter) / 2
		targetW := width - paneGutter - poolW
		l.PoolFrame = Rect{X: 0, Y: 0, W: poolW, H: height}
		l.TargetFrame = Rect{X: poolW + paneGutter, Y: 0, W: targetW, H: height}
	}
	l.Pool = gridArea(l.PoolFrame)
	l.Target = gridArea(l.TargetFrame)

	l.PoolGrid = grid.Compute(l.Pool.W, constraints)
	l.TargetGrid = grid.Compute(l.Target.W, constraints)
	return l
}

func gridArea(frame Rect) Rect {
	return Rect{
		X: frame.X + panePadding,
		Y: frame.Y + paneHeaderHeight,
		W: max(0, frame.W-2*panePadding),
		H: max(0, frame.H-paneHeaderHeight),
	}
}
